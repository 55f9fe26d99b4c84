// Package session holds per-connection conversational and negotiation state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when the session was never created or was destroyed.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNegotiationNotFound is returned for unknown, closed, or foreign negotiation ids.
	ErrNegotiationNotFound = errors.New("negotiation not found")
	// ErrExchangeInFlight is returned when a staged exchange already runs against the record.
	ErrExchangeInFlight = errors.New("exchange already in flight")
	// ErrNoOffer is returned when accept or reject reaches a record without an offer.
	ErrNoOffer = errors.New("negotiation has no offer")
)

// Negotiation is a point-in-time copy of a negotiation record.
type Negotiation struct {
	ID           string
	SessionID    string
	ServiceType  domain.ServiceType
	Requirements string
	Status       domain.NegotiationStatus
	LastOffer    *domain.Offer
	Rounds       int
	CreatedAt    time.Time
}

type record struct {
	Negotiation
	inFlight bool
}

func (r *record) snapshot() Negotiation {
	n := r.Negotiation
	if r.LastOffer != nil {
		offer := r.LastOffer.Clone()
		n.LastOffer = &offer
	}
	return n
}

type state struct {
	mu           sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	history      []domain.ConversationTurn
	negotiations map[string]*record
	completed    *domain.CompletedTransaction
	payments     map[string]domain.PendingPayment
}

// Registry owns every live session. Each session's records sit behind that
// session's own mutex; the registry lock only guards the session map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*state
	base     context.Context
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for timestamps and suppression.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator overrides negotiation id allocation.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*state),
		base:     context.Background(),
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "session_registry")
	return r
}

// CreateSession initializes empty state for sessionID and returns the session
// context. Calling it again for a live session returns the existing context.
func (r *Registry) CreateSession(sessionID string) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s.ctx
	}
	ctx, cancel := context.WithCancel(r.base)
	r.sessions[sessionID] = &state{
		ctx:          ctx,
		cancel:       cancel,
		negotiations: make(map[string]*record),
		payments:     make(map[string]domain.PendingPayment),
	}
	r.logger.Debug("Session created", "session_id", sessionID)
	return ctx
}

// Exists reports whether the session is live.
func (r *Registry) Exists(sessionID string) bool {
	return r.get(sessionID) != nil
}

// Context returns the session context, cancelled on DestroySession.
func (r *Registry) Context(sessionID string) (context.Context, bool) {
	s := r.get(sessionID)
	if s == nil {
		return nil, false
	}
	return s.ctx, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// DestroySession cancels the session context and drops all of its state,
// including negotiation records in any status.
func (r *Registry) DestroySession(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if !ok {
		return
	}

	s.cancel()
	s.mu.Lock()
	dropped := len(s.negotiations)
	s.history = nil
	s.negotiations = nil
	s.completed = nil
	s.payments = nil
	s.mu.Unlock()
	r.logger.Debug("Session destroyed", "session_id", sessionID, "negotiations_dropped", dropped)
}

// AppendTurn appends to the session history. It is a no-op for unknown sessions.
func (r *Registry) AppendTurn(sessionID string, turn domain.ConversationTurn) {
	s := r.get(sessionID)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.negotiations == nil {
		return
	}
	s.history = append(s.history, turn)
}

// RecentTurns returns a copy of the last n turns in order.
func (r *Registry) RecentTurns(sessionID string, n int) []domain.ConversationTurn {
	s := r.get(sessionID)
	if s == nil || n <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.history) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.ConversationTurn, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// OpenNegotiation allocates a fresh id and stores a record in the negotiating state.
func (r *Registry) OpenNegotiation(sessionID string, serviceType domain.ServiceType, requirements string) (string, error) {
	s := r.get(sessionID)
	if s == nil {
		return "", ErrSessionNotFound
	}
	id := r.newID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.negotiations == nil {
		return "", ErrSessionNotFound
	}
	s.negotiations[id] = &record{Negotiation: Negotiation{
		ID:           id,
		SessionID:    sessionID,
		ServiceType:  serviceType,
		Requirements: requirements,
		Status:       domain.StatusNegotiating,
		CreatedAt:    r.now(),
	}}
	return id, nil
}

// Negotiation returns a copy of the record owned by sessionID.
func (r *Registry) Negotiation(sessionID, id string) (Negotiation, error) {
	var out Negotiation
	err := r.withRecord(sessionID, id, func(rec *record) error {
		out = rec.snapshot()
		return nil
	})
	return out, err
}

// RecordOffer stores offer as the record's last offer. The status is left untouched.
func (r *Registry) RecordOffer(sessionID, id string, offer domain.Offer) error {
	return r.withRecord(sessionID, id, func(rec *record) error {
		if rec.LastOffer != nil {
			rec.Rounds++
		}
		o := offer.Clone()
		rec.LastOffer = &o
		return nil
	})
}

// SetStatus moves the record to status.
func (r *Registry) SetStatus(sessionID, id string, status domain.NegotiationStatus) error {
	return r.withRecord(sessionID, id, func(rec *record) error {
		rec.Status = status
		return nil
	})
}

// BeginExchange claims the record for one staged exchange. When requireOffer
// is set the record must already carry an offer. Every successful call must be
// paired with EndExchange.
func (r *Registry) BeginExchange(sessionID, id string, requireOffer bool) (Negotiation, error) {
	var out Negotiation
	err := r.withRecord(sessionID, id, func(rec *record) error {
		if rec.inFlight {
			return ErrExchangeInFlight
		}
		if requireOffer && rec.LastOffer == nil {
			return ErrNoOffer
		}
		rec.inFlight = true
		out = rec.snapshot()
		return nil
	})
	return out, err
}

// EndExchange releases the claim taken by BeginExchange. Closed records are ignored.
func (r *Registry) EndExchange(sessionID, id string) {
	_ = r.withRecord(sessionID, id, func(rec *record) error {
		rec.inFlight = false
		return nil
	})
}

// CloseNegotiation removes the record. It reports whether a record was removed.
func (r *Registry) CloseNegotiation(sessionID, id string) bool {
	s := r.get(sessionID)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.negotiations[id]; !ok {
		return false
	}
	delete(s.negotiations, id)
	return true
}

// MarkCompletedTransaction stamps the current time, replacing any earlier value.
func (r *Registry) MarkCompletedTransaction(sessionID, referenceID string) {
	s := r.get(sessionID)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.negotiations == nil {
		return
	}
	s.completed = &domain.CompletedTransaction{
		SessionID:   sessionID,
		ReferenceID: referenceID,
		CompletedAt: r.now(),
	}
}

// CompletedTransaction returns the last completed transaction, if any.
func (r *Registry) CompletedTransaction(sessionID string) (domain.CompletedTransaction, bool) {
	s := r.get(sessionID)
	if s == nil {
		return domain.CompletedTransaction{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed == nil {
		return domain.CompletedTransaction{}, false
	}
	return *s.completed, true
}

// IsSuppressed reports whether a transaction completed less than window ago.
func (r *Registry) IsSuppressed(sessionID string, window time.Duration) bool {
	tx, ok := r.CompletedTransaction(sessionID)
	if !ok {
		return false
	}
	return r.now().Sub(tx.CompletedAt) < window
}

// HoldPayment keeps a payment awaiting client confirmation, keyed by payment id.
func (r *Registry) HoldPayment(sessionID string, p domain.PendingPayment) error {
	s := r.get(sessionID)
	if s == nil {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payments == nil {
		return ErrSessionNotFound
	}
	s.payments[p.Payment.PaymentID] = p
	return nil
}

// TakePayment removes and returns the pending payment. A second call for the
// same id finds nothing.
func (r *Registry) TakePayment(sessionID, paymentID string) (domain.PendingPayment, bool) {
	s := r.get(sessionID)
	if s == nil {
		return domain.PendingPayment{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if ok {
		delete(s.payments, paymentID)
	}
	return p, ok
}

func (r *Registry) get(sessionID string) *state {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[sessionID]
}

func (r *Registry) withRecord(sessionID, id string, fn func(*record) error) error {
	s := r.get(sessionID)
	if s == nil {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.negotiations[id]
	if !ok {
		return ErrNegotiationNotFound
	}
	return fn(rec)
}
