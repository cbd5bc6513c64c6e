package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"wardrobeapi/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// This is the duration for which presigned read URLs stay valid.
const presignedURLExpiration = 15 * time.Minute

type StorageServiceProvider interface {
	Upload(ctx context.Context, data []byte, key string, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(publicURL string) (string, bool)
}

type ReadURLPresigner interface {
	PresignedReadURL(ctx context.Context, key string) (string, error)
}

// S3StorageService talks to an S3-compatible bucket with SigV4 signed
// requests. Public URLs have the form {PublicBaseURL}/{Bucket}/{key}.
type S3StorageService struct {
	Endpoint      string
	PublicBaseURL string
	Bucket        string
	Region        string
	Credentials   aws.Credentials
	MaxAttempts   int
	RetryDelay    time.Duration
	HTTPClient    *http.Client
	Now           func() time.Time

	signerOnce sync.Once
	signer     *v4.Signer

	presignOnce   sync.Once
	presignClient *s3.PresignClient
	presignErr    error
}

func NewS3StorageService(cfg config.Storage) *S3StorageService {
	return &S3StorageService{
		Endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		PublicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		Bucket:        cfg.Bucket,
		Region:        cfg.Region,
		Credentials: aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		},
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		HTTPClient:  &http.Client{Timeout: 60 * time.Second},
		Now:         time.Now,
	}
}

func (s *S3StorageService) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.PublicBaseURL, s.Bucket, key)
}

func (s *S3StorageService) KeyFromURL(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", s.PublicBaseURL, s.Bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(publicURL, prefix)
	return key, key != ""
}

// Upload PUTs data under key and returns the public URL of the object that
// was written. A 409 moves on to a suffixed key (name-1.jpg, name-2.jpg),
// so the returned URL may not match key. Transport failures retry the same
// key after RetryDelay. There is no wait after the last attempt.
func (s *S3StorageService) Upload(ctx context.Context, data []byte, key string, contentType string) (string, error) {
	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	currentKey := key
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		status, body, err := s.send(ctx, http.MethodPut, currentKey, data, contentType)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", err
			}
			fmt.Printf("[Storage] Upload of %s failed on attempt %d: %v\n", currentKey, attempt+1, err)
			if attempt == attempts-1 {
				break
			}
			if waitErr := sleepContext(ctx, s.RetryDelay); waitErr != nil {
				return "", waitErr
			}
			continue
		}
		switch status {
		case http.StatusOK, http.StatusCreated:
			return s.PublicURL(currentKey), nil
		case http.StatusConflict:
			lastErr = &UploadError{Key: currentKey, StatusCode: status, Body: body}
			currentKey = suffixedKey(key, attempt+1)
			fmt.Printf("[Storage] Key conflict, retrying as %s\n", currentKey)
		default:
			return "", &UploadError{Key: currentKey, StatusCode: status, Body: body}
		}
	}
	return "", lastErr
}

func (s *S3StorageService) Delete(ctx context.Context, key string) error {
	status, body, err := s.send(ctx, http.MethodDelete, key, nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return &UploadError{Key: key, StatusCode: status, Body: body}
	}
	return nil
}

func (s *S3StorageService) send(ctx context.Context, method, key string, payload []byte, contentType string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.objectURL(key), bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("build %s request: %w", method, err)
	}
	if method == http.MethodPut {
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Cache-Control", "3600")
	}
	if err := s.SignRequest(ctx, req, payload); err != nil {
		return 0, "", err
	}

	client := s.HTTPClient
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", &NetworkError{Op: method + " " + key, Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), nil
}

func (s *S3StorageService) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.Endpoint, s.Bucket, key)
}

// SignRequest adds x-amz-content-sha256, x-amz-date and the SigV4
// Authorization header for payload. Signing time comes from Now, so equal
// inputs at an equal clock give an equal signature.
func (s *S3StorageService) SignRequest(ctx context.Context, req *http.Request, payload []byte) error {
	payloadHash := PayloadHash(payload)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	s.signerOnce.Do(func() {
		s.signer = v4.NewSigner(func(o *v4.SignerOptions) {
			// S3 paths are signed without double encoding
			o.DisableURIPathEscaping = true
		})
	})
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if err := s.signer.SignHTTP(ctx, s.Credentials, req, payloadHash, "s3", s.Region, now().UTC()); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}

func (s *S3StorageService) PresignedReadURL(ctx context.Context, key string) (string, error) {
	s.presignOnce.Do(func() {
		s.presignClient, s.presignErr = s.newPresignClient(ctx)
	})
	if s.presignErr != nil {
		return "", s.presignErr
	}
	request, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignedURLExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign request: %w", err)
	}
	return request.URL, nil
}

func (s *S3StorageService) newPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: s.Endpoint, HostnameImmutable: true}, nil
	})
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.Region),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.Credentials.AccessKeyID, s.Credentials.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return s3.NewPresignClient(client), nil
}

// PayloadHash is the hex SHA-256 of payload as sent in x-amz-content-sha256.
func PayloadHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func suffixedKey(key string, n int) string {
	ext := path.Ext(key)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(key, ext), n, ext)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
