// Package profile loads and publishes the user profile the agents read.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ashureev/insurance-a2a/internal/domain"
)

// ErrNoProfile is returned by a backend that holds no profile yet.
var ErrNoProfile = errors.New("profile: no profile stored")

// Backend persists a single profile document.
type Backend interface {
	Load(ctx context.Context) (domain.UserProfile, error)
	Save(ctx context.Context, p domain.UserProfile) error
}

// Store publishes the current profile snapshot. Readers never observe a
// partially replaced profile.
type Store struct {
	mu      sync.RWMutex
	current domain.UserProfile
	backend Backend
	logger  *slog.Logger
}

// NewStore loads the profile from backend. A failed load publishes the
// built-in default profile instead of failing startup.
func NewStore(ctx context.Context, backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{backend: backend, logger: logger.With("component", "profile")}
	if _, err := s.Reload(ctx); err != nil {
		s.logger.Warn("Failed to load user profile, using default", "error", err)
		s.current = Default()
	}
	return s
}

// Current returns the published profile.
func (s *Store) Current() domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace validates, persists and publishes p.
func (s *Store) Replace(ctx context.Context, p domain.UserProfile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if err := s.backend.Save(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	s.logger.Info("Updated user profile", "name", p.Name)
	return nil
}

// Reload re-reads the backend and publishes the result. On failure the
// current profile stays published.
func (s *Store) Reload(ctx context.Context) (domain.UserProfile, error) {
	p, err := s.backend.Load(ctx)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return domain.UserProfile{}, fmt.Errorf("invalid stored profile: %w", err)
	}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	s.logger.Info("Loaded user profile", "name", p.Name)
	return p, nil
}
