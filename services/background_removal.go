package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wardrobeapi/config"
)

type BackgroundRemovalProvider interface {
	RemoveBackground(ctx context.Context, sourceURL string) ([]byte, error)
}

const (
	predictionStarting   = "starting"
	predictionProcessing = "processing"
	predictionSucceeded  = "succeeded"
	predictionFailed     = "failed"
	predictionCanceled   = "canceled"
)

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Image string `json:"image"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

// ReplicateBackgroundRemover starts a prediction job and polls it until it
// settles. The first FastAttempts polls wait FastInterval, the rest wait
// SlowInterval, and the job is abandoned after MaxAttempts polls.
type ReplicateBackgroundRemover struct {
	APIURL       string
	APIToken     string
	ModelVersion string
	MaxAttempts  int
	FastAttempts int
	FastInterval time.Duration
	SlowInterval time.Duration
	HTTPClient   *http.Client
}

func NewReplicateBackgroundRemover(cfg config.BackgroundRemoval) *ReplicateBackgroundRemover {
	return &ReplicateBackgroundRemover{
		APIURL:       strings.TrimRight(cfg.APIURL, "/"),
		APIToken:     cfg.APIToken,
		ModelVersion: cfg.ModelVersion,
		MaxAttempts:  cfg.MaxAttempts,
		FastAttempts: cfg.FastAttempts,
		FastInterval: cfg.FastInterval,
		SlowInterval: cfg.SlowInterval,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *ReplicateBackgroundRemover) RemoveBackground(ctx context.Context, sourceURL string) ([]byte, error) {
	predictionID, err := r.createPrediction(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[BackgroundRemoval] Prediction %s started for %s\n", predictionID, sourceURL)

	outputURL, err := r.waitForPrediction(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	return ReadFileFromUrl(ctx, r.HTTPClient, outputURL)
}

func (r *ReplicateBackgroundRemover) createPrediction(ctx context.Context, sourceURL string) (string, error) {
	payload, err := json.Marshal(predictionRequest{
		Version: r.ModelVersion,
		Input:   predictionInput{Image: sourceURL},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.APIURL+"/predictions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	prediction, err := r.do(req, "create prediction")
	if err != nil {
		return "", err
	}
	if prediction.ID == "" {
		return "", fmt.Errorf("%w: prediction id missing", ErrInvalidResponse)
	}
	return prediction.ID, nil
}

func (r *ReplicateBackgroundRemover) waitForPrediction(ctx context.Context, predictionID string) (string, error) {
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.APIURL+"/predictions/"+predictionID, nil)
		if err != nil {
			return "", err
		}
		prediction, err := r.do(req, "poll prediction")
		if err != nil {
			return "", err
		}

		switch prediction.Status {
		case predictionSucceeded:
			outputURL := predictionOutputURL(prediction.Output)
			if outputURL == "" {
				return "", fmt.Errorf("%w: prediction %s succeeded without output", ErrInvalidResponse, predictionID)
			}
			fmt.Printf("[BackgroundRemoval] Prediction %s succeeded after %d polls\n", predictionID, attempt+1)
			return outputURL, nil
		case predictionFailed, predictionCanceled:
			return "", &ProcessingError{Message: predictionErrorMessage(prediction.Error)}
		case predictionStarting, predictionProcessing:
		default:
			return "", fmt.Errorf("%w: unknown prediction status %q", ErrInvalidResponse, prediction.Status)
		}

		if err := sleepContext(ctx, r.pollInterval(attempt)); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: prediction %s still running after %d polls", ErrProcessingTimeout, predictionID, r.MaxAttempts)
}

func (r *ReplicateBackgroundRemover) pollInterval(attempt int) time.Duration {
	if attempt < r.FastAttempts {
		return r.FastInterval
	}
	return r.SlowInterval
}

func (r *ReplicateBackgroundRemover) do(req *http.Request, op string) (*predictionResponse, error) {
	req.Header.Set("Authorization", "Token "+r.APIToken)
	client := r.HTTPClient
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrInvalidResponse, op, resp.StatusCode, string(body))
	}
	var prediction predictionResponse
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, op, err)
	}
	return &prediction, nil
}

// predictionOutputURL accepts either a single URL or a list of URLs.
func predictionOutputURL(raw json.RawMessage) string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}

func predictionErrorMessage(raw json.RawMessage) string {
	var message string
	if err := json.Unmarshal(raw, &message); err == nil && message != "" {
		return message
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "unknown error"
	}
	return trimmed
}

// LocalBackgroundRemover whitens the background in-process. It is used when
// no prediction API token is configured.
type LocalBackgroundRemover struct {
	HTTPClient             *http.Client
	LowerThreshold         uint8
	UpperThreshold         uint8
	CentralProtectionRatio float64
}

func NewLocalBackgroundRemover() *LocalBackgroundRemover {
	return &LocalBackgroundRemover{
		LowerThreshold:         200,
		UpperThreshold:         240,
		CentralProtectionRatio: 0.4,
	}
}

func (l *LocalBackgroundRemover) RemoveBackground(ctx context.Context, sourceURL string) ([]byte, error) {
	source, err := ReadFileFromUrl(ctx, l.HTTPClient, sourceURL)
	if err != nil {
		return nil, err
	}
	out, err := WhitenBackgroundFeathered(source, l.LowerThreshold, l.UpperThreshold, l.CentralProtectionRatio)
	if err != nil {
		return nil, &ProcessingError{Message: err.Error()}
	}
	return out, nil
}

// NewBackgroundRemover picks the remote remover when it has credentials.
func NewBackgroundRemover(cfg config.BackgroundRemoval) BackgroundRemovalProvider {
	if cfg.APIToken == "" {
		fmt.Println("[BackgroundRemoval] No API token, using local whitening")
		return NewLocalBackgroundRemover()
	}
	return NewReplicateBackgroundRemover(cfg)
}
