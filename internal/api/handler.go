// Package api provides the administrative HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ashureev/insurance-a2a/internal/domain"
)

// ProfileStore is the profile surface the handlers need.
type ProfileStore interface {
	Current() domain.UserProfile
	Replace(ctx context.Context, p domain.UserProfile) error
	Reload(ctx context.Context) (domain.UserProfile, error)
}

// Counter reports a live count, such as sessions or open connections.
type Counter interface {
	Len() int
}

// Handler provides common handler utilities.
type Handler struct {
	profiles    ProfileStore
	sessions    Counter
	connections Counter
	llmProvider string
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(profiles ProfileStore, sessions, connections Counter, llmProvider string) *Handler {
	return &Handler{
		profiles:    profiles,
		sessions:    sessions,
		connections: connections,
		llmProvider: llmProvider,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
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
