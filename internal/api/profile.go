package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxProfileBytes = 1 << 20

// ProfileHandler serves the profile and runtime config endpoints.
type ProfileHandler struct {
	*Handler
	reloadMu sync.Mutex
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(base *Handler) *ProfileHandler {
	return &ProfileHandler{Handler: base}
}

// RegisterRoutes registers profile routes.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.PutProfile)
		r.Post("/reload-profile", h.ReloadProfile)
	})
}

type profileResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Profile *domain.UserProfile `json:"profile,omitempty"`
}

// GetConfig returns runtime information for the chat page.
func (h *ProfileHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]any{
		"llm_provider":     h.llmProvider,
		"active_sessions":  count(h.sessions),
		"open_connections": count(h.connections),
	})
}

func count(c Counter) int {
	if c == nil {
		return 0
	}
	return c.Len()
}

// GetProfile returns the published profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.profiles.Current())
}

// PutProfile replaces the profile. Agents read the new profile on their
// next call.
func (h *ProfileHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.UserProfile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProfileBytes))
	if err := dec.Decode(&p); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "profile too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid profile JSON")
		return
	}
	if err := p.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.profiles.Replace(r.Context(), p); err != nil {
		slog.Error("Failed to update profile", "error", err)
		JSON(w, http.StatusInternalServerError, profileResponse{Message: "Failed to update profile"})
		return
	}
	current := h.profiles.Current()
	JSON(w, http.StatusOK, profileResponse{Success: true, Message: "Profile updated successfully", Profile: &current})
}

// ReloadProfile re-reads the profile from its backing store.
func (h *ProfileHandler) ReloadProfile(w http.ResponseWriter, r *http.Request) {
	if !h.reloadMu.TryLock() {
		slog.Warn("Profile reload already in progress")
		Error(w, http.StatusConflict, "reload_in_progress")
		return
	}
	defer h.reloadMu.Unlock()

	p, err := h.profiles.Reload(r.Context())
	if err != nil {
		slog.Error("Failed to reload profile", "error", err)
		JSON(w, http.StatusInternalServerError, profileResponse{Message: "Failed to reload profile"})
		return
	}
	JSON(w, http.StatusOK, profileResponse{
		Success: true,
		Message: fmt.Sprintf("Profile reloaded for %s", p.Name),
		Profile: &p,
	})
}
