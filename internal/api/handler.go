// Package api provides HTTP handlers for the chatbot API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vadym312/AI-Chatbot/internal/chat"
	"github.com/vadym312/AI-Chatbot/internal/domain"
)

// Handler provides common handler utilities and dependencies.
type Handler struct {
	mgr            *chat.Manager
	responder      chat.Responder
	requestTimeout time.Duration
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(mgr *chat.Manager, responder chat.Responder, requestTimeout time.Duration) *Handler {
	return &Handler{
		mgr:            mgr,
		responder:      responder,
		requestTimeout: requestTimeout,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// DomainError classifies err into the fixed taxonomy and writes it with
// its mapped status code.
func DomainError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		Error(w, http.StatusRequestEntityTooLarge, "Request body too large.")
		return
	}
	derr := domain.Classify(err)
	Error(w, derr.Status, derr.Message)
}
