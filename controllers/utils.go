package controllers

import (
	"errors"
	"net/http"

	"wardrobeapi/services"
)

// StatusForError maps pipeline errors onto HTTP statuses.
func StatusForError(err error) int {
	var (
		networkErr    *services.NetworkError
		uploadErr     *services.UploadError
		processingErr *services.ProcessingError
	)
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrUploadInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &networkErr),
		errors.As(err, &uploadErr),
		errors.As(err, &processingErr),
		errors.Is(err, services.ErrProcessingTimeout),
		errors.Is(err, services.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage is what the caller sees for err. Server side failures are
// not echoed back verbatim.
func ErrorMessage(err error) string {
	switch StatusForError(err) {
	case http.StatusUnauthorized:
		return "Please sign in again"
	case http.StatusBadRequest:
		return "Sorry, we could not read this image, please try another photo"
	case http.StatusRequestEntityTooLarge:
		return "This image is too large, please try a smaller photo"
	case http.StatusConflict:
		return "Another upload is still running, please wait for it to finish"
	case http.StatusNotFound:
		return "Clothing item not found"
	case http.StatusBadGateway:
		return "Sorry, image processing failed, please try again"
	default:
		return "Something went wrong, please try again"
	}
}
