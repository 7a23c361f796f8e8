package domain

import (
	"errors"
	"net/http"
)

// Error is a classified failure with a fixed user-facing message and the
// HTTP status it maps to. Every error surfaced to a client is one of the
// sentinel values below; anything unrecognized collapses to ErrProcessing.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

// Fixed error taxonomy. One entry per failure condition; messages are the
// exact strings shown to users.
var (
	ErrMissingAPIKey = &Error{
		Code:    "missing_api_key",
		Message: "Server is missing the provider API key.",
		Status:  http.StatusInternalServerError,
	}
	ErrInvalidRequest = &Error{
		Code:    "invalid_request",
		Message: "Please enter a message.",
		Status:  http.StatusBadRequest,
	}
	ErrProcessing = &Error{
		Code:    "processing_failed",
		Message: "Something went wrong while processing your request. Please try again.",
		Status:  http.StatusInternalServerError,
	}
	ErrMediaProcessing = &Error{
		Code:    "media_processing_failed",
		Message: "Failed to process the generated media. Please try again.",
		Status:  http.StatusInternalServerError,
	}
	ErrEmptyResponse = &Error{
		Code:    "empty_response",
		Message: "The model returned an empty response. Please try again.",
		Status:  http.StatusInternalServerError,
	}
	ErrModelUnavailable = &Error{
		Code:    "model_unavailable",
		Message: "The model is currently unavailable. Please try again later.",
		Status:  http.StatusInternalServerError,
	}
	ErrNetwork = &Error{
		Code:    "network_failure",
		Message: "Could not reach the AI provider. Please check your connection and try again.",
		Status:  http.StatusInternalServerError,
	}
	ErrMalformedResponse = &Error{
		Code:    "malformed_response",
		Message: "The provider returned an unexpected response.",
		Status:  http.StatusInternalServerError,
	}
	ErrRateLimited = &Error{
		Code:    "rate_limited",
		Message: "Rate limit exceeded. Please wait a moment and try again.",
		Status:  http.StatusTooManyRequests,
	}
	ErrInvalidAPIKey = &Error{
		Code:    "invalid_api_key",
		Message: "The provider rejected the server's API key.",
		Status:  http.StatusUnauthorized,
	}
	ErrContentPolicy = &Error{
		Code:    "content_policy",
		Message: "Your request was rejected by the content policy.",
		Status:  http.StatusBadRequest,
	}
	ErrSafety = &Error{
		Code:    "safety_rejection",
		Message: "The request was declined by the safety system.",
		Status:  http.StatusBadRequest,
	}
	// ErrRegionRestricted is the only condition downgraded to a soft,
	// displayed assistant message instead of a rejected request.
	ErrRegionRestricted = &Error{
		Code:    "region_restricted",
		Message: "Sorry, this service is not available in your region. Text chat still works, but media generation is restricted by the provider.",
		Status:  http.StatusForbidden,
	}
)

// Classify maps an arbitrary error to its taxonomy entry. Unrecognized
// errors fall back to the generic processing failure.
func Classify(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return ErrProcessing
}
