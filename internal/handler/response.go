package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"academy/internal/repository"
	"academy/internal/service"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Internal failures are not described to the caller.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	_ = c.Error(err)
	c.JSON(code, ErrorResponse{Error: msg})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Missing entities
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrTrainingNotFound),
		errors.Is(err, service.ErrRegistrationNotFound):
		return http.StatusNotFound

	// Caller input and webhook authenticity
	case errors.Is(err, service.ErrInvalidTrainingID),
		errors.Is(err, service.ErrInvalidPaymentType),
		errors.Is(err, service.ErrInvalidTrainee),
		errors.Is(err, service.ErrInvalidTransactionID),
		errors.Is(err, service.ErrMalformedEvent):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusUnauthorized

	// Registration window is over for good
	case errors.Is(err, service.ErrRegistrationsClosed):
		return http.StatusGone

	// Business rule errors
	case errors.Is(err, service.ErrTrainingFull),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusUnprocessableEntity

	// Retryable upstream failure
	case errors.Is(err, service.ErrProviderUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
