package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidImage      = errors.New("invalid image")
	ErrImageTooLarge     = errors.New("image too large")
	ErrInvalidResponse   = errors.New("invalid response")
	ErrProcessingTimeout = errors.New("processing timed out")
	ErrDataDecoding      = errors.New("data decoding failed")
	ErrNotFound          = errors.New("not found")
	ErrUploadInProgress  = errors.New("upload already in progress")
)

// NetworkError is a transport failure before any HTTP status was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UploadError is a non-success storage response.
type UploadError struct {
	Key        string
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("storage request for %s failed with status %d: %s", e.Key, e.StatusCode, e.Body)
}

// ProcessingError is a remote job that ended in failed or canceled.
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	return "background removal failed: " + e.Message
}
