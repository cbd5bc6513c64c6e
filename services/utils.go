package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var defaultHTTPClient = &http.Client{Timeout: 60 * time.Second}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func floatPointer(f float32) *float32 {
	return &f
}

// ReadFileFromUrl downloads url and returns the body.
func ReadFileFromUrl(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = defaultHTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "download " + url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read " + url, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download %s returned status %d", ErrInvalidResponse, url, resp.StatusCode)
	}
	return body, nil
}
