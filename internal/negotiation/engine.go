// Package negotiation runs the orchestration engine: it gates requester
// decisions and drives staged exchanges with the company agents.
package negotiation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/insurance-a2a/internal/agent"
	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/session"
)

// ErrRenegotiationLimit is returned when a record has used all its rounds.
var ErrRenegotiationLimit = errors.New("renegotiation limit reached")

const (
	msgNegotiationNotFound = "Negotiation data not found. Please try again."
	msgExchangeInFlight    = "This offer is already being processed. Please wait a moment."
	msgPolicyNotFound      = "Unable to find policy data. Please contact support."
	msgPolicyFailed        = "We could not issue your policy right now. Please try again shortly."
	msgInternal            = "Something went wrong. Please try again."
)

// Requester decides how to answer a user message.
type Requester interface {
	Decide(ctx context.Context, in agent.RequesterInput) (agent.Decision, error)
}

// Provider negotiates offers and handles payment and issuance.
type Provider interface {
	Negotiate(ctx context.Context, req agent.NegotiationRequest) (domain.Proposal, error)
	FallbackProposal(requirements string) domain.Proposal
	Renegotiate(ctx context.Context, kind domain.InsuranceKind, previous domain.Offer, feedback string) (domain.Proposal, error)
	ImprovedProposal(kind domain.InsuranceKind, previous domain.Offer) domain.Proposal
	PreparePayment(ctx context.Context, kind domain.InsuranceKind, offer domain.Offer) (domain.PaymentDetails, error)
	FallbackPayment(kind domain.InsuranceKind) domain.PaymentDetails
	IssuePolicy(ctx context.Context, pending domain.PendingPayment, conf domain.PaymentConfirmation) (domain.PolicyDocument, error)
}

// ClaimsProcessor files claims.
type ClaimsProcessor interface {
	ProcessClaim(ctx context.Context, req agent.ClaimRequest) (domain.ClaimResult, error)
	FallbackClaim() domain.ClaimResult
}

// Scheduler arranges health checkups.
type Scheduler interface {
	ScheduleCheckup(ctx context.Context, text string) (domain.CheckupResult, error)
	FallbackCheckup() domain.CheckupResult
}

// Pacing spaces the cosmetic events of a staged exchange.
type Pacing struct {
	LeadIn   time.Duration
	Step     time.Duration
	Settle   time.Duration
	FollowUp time.Duration
}

// Options tune the engine.
type Options struct {
	SuppressionWindow time.Duration
	HistoryWindow     int
	MinDetailLength   int
	MaxRenegotiations int // 0 = unbounded
	AgentTimeout      time.Duration
	Pacing            Pacing
	Now               func() time.Time
	Logger            *slog.Logger
}

// DefaultOptions returns production pacing and limits.
func DefaultOptions() Options {
	return Options{
		SuppressionWindow: 5 * time.Minute,
		HistoryWindow:     10,
		MinDetailLength:   30,
		MaxRenegotiations: 3,
		AgentTimeout:      20 * time.Second,
		Pacing: Pacing{
			LeadIn:   2 * time.Second,
			Step:     800 * time.Millisecond,
			Settle:   500 * time.Millisecond,
			FollowUp: 2 * time.Second,
		},
	}
}

// Engine coordinates agents for every session in the registry.
type Engine struct {
	registry  *session.Registry
	gate      Gate
	requester Requester
	provider  Provider
	claims    ClaimsProcessor
	scheduler Scheduler
	opts      Options
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// New creates an engine.
func New(registry *session.Registry, requester Requester, provider Provider, claims ClaimsProcessor, scheduler Scheduler, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry:  registry,
		gate:      Gate{MinDetailLength: opts.MinDetailLength},
		requester: requester,
		provider:  provider,
		claims:    claims,
		scheduler: scheduler,
		opts:      opts,
		logger:    logger.With("component", "negotiation"),
	}
}

// Wait blocks until every spawned exchange has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// HandleUserMessage answers one user message and, when the gate opens,
// starts the staged exchange with the routed agent.
func (e *Engine) HandleUserMessage(ctx context.Context, sessionID string, out Emitter, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !e.registry.Exists(sessionID) {
		return session.ErrSessionNotFound
	}

	suppressed := e.registry.IsSuppressed(sessionID, e.opts.SuppressionWindow)
	input := agent.RequesterInput{
		Message:        text,
		History:        e.registry.RecentTurns(sessionID, e.opts.HistoryWindow),
		Suppressed:     suppressed,
		Acknowledgment: IsAcknowledgment(text),
	}
	decision, err := callWithTimeout(ctx, e.opts.AgentTimeout, func(c context.Context) (agent.Decision, error) {
		return e.requester.Decide(c, input)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		e.logger.Warn("Requester failed, using fallback", "session_id", sessionID, "error", err)
		decision = agent.FallbackDecision()
	}

	e.registry.AppendTurn(sessionID, domain.ConversationTurn{Role: domain.RoleUser, Content: text})
	e.registry.AppendTurn(sessionID, domain.ConversationTurn{Role: domain.RoleAssistant, Content: decision.Response})
	e.emit(ctx, sessionID, out, Event{EventBotMessage, botMessage(agent.RequesterPersona, decision.Response, e.opts.Now())})

	verdict := e.gate.Evaluate(GateInput{
		RequiresA2A: decision.RequiresA2A,
		Suppressed:  suppressed,
		Message:     text,
		ServiceType: decision.ServiceType,
		Detail:      decision.ServiceDetails,
	})
	if !verdict.Open {
		e.logger.Info("Exchange not started", "session_id", sessionID, "service_type", decision.ServiceType, "gate_reason", verdict.Reason)
		return nil
	}

	requirements := strings.TrimSpace(decision.ServiceDetails)
	if requirements == "" {
		requirements = text
	}
	x, err := e.open(sessionID, decision.ServiceType, requirements, out)
	if err != nil {
		return err
	}
	e.logger.Info("Exchange started", "session_id", sessionID, "negotiation_id", x.negotiationID, "service_type", decision.ServiceType)

	switch decision.ServiceType {
	case domain.ServicePolicyInfo:
		e.spawn(x, func(sctx context.Context) { e.runNegotiation(sctx, x, requirements, decision.Response) })
	case domain.ServiceClaims:
		e.spawn(x, func(sctx context.Context) { e.runClaim(sctx, x, requirements, text) })
	case domain.ServiceHealthCheckup:
		e.spawn(x, func(sctx context.Context) { e.runCheckup(sctx, x, requirements+" "+text) })
	}
	return nil
}

// open creates a record and claims it for the first exchange.
func (e *Engine) open(sessionID string, service domain.ServiceType, requirements string, out Emitter) (*exchange, error) {
	id, err := e.registry.OpenNegotiation(sessionID, service, requirements)
	if err != nil {
		return nil, fmt.Errorf("open negotiation: %w", err)
	}
	if _, err := e.registry.BeginExchange(sessionID, id, false); err != nil {
		return nil, fmt.Errorf("begin exchange: %w", err)
	}
	return &exchange{engine: e, sessionID: sessionID, negotiationID: id, service: service, out: out}, nil
}

// claim takes an existing record for an accept or reject exchange. Lookup
// failures are reported to the user.
func (e *Engine) claim(ctx context.Context, sessionID, negotiationID string, out Emitter) (*exchange, session.Negotiation, bool) {
	neg, err := e.registry.BeginExchange(sessionID, negotiationID, true)
	if err != nil {
		msg := msgNegotiationNotFound
		if errors.Is(err, session.ErrExchangeInFlight) {
			msg = msgExchangeInFlight
		}
		e.logger.Info("Negotiation lookup failed", "session_id", sessionID, "negotiation_id", negotiationID, "error", err)
		e.emitError(ctx, sessionID, out, msg)
		return nil, neg, false
	}
	return &exchange{engine: e, sessionID: sessionID, negotiationID: negotiationID, service: neg.ServiceType, out: out}, neg, true
}

// spawn runs fn on the session context. Panics become a generic error event.
func (e *Engine) spawn(x *exchange, fn func(ctx context.Context)) {
	sctx, ok := e.registry.Context(x.sessionID)
	if !ok {
		x.release()
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer x.release()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("Exchange panicked", "session_id", x.sessionID, "negotiation_id", x.negotiationID, "panic", r)
				e.emitError(sctx, x.sessionID, x.out, msgInternal)
			}
		}()
		fn(sctx)
	}()
}

// emit delivers ev unless the session is gone.
func (e *Engine) emit(ctx context.Context, sessionID string, out Emitter, ev Event) bool {
	if ctx.Err() != nil || !e.registry.Exists(sessionID) {
		return false
	}
	if err := out.Emit(ctx, ev); err != nil {
		e.logger.Debug("Emit failed", "session_id", sessionID, "event", ev.Name, "error", err)
		return false
	}
	return true
}

func (e *Engine) emitError(ctx context.Context, sessionID string, out Emitter, msg string) {
	e.emit(ctx, sessionID, out, Event{EventError, ErrorNotice{Message: msg}})
}

func (e *Engine) say(ctx context.Context, sessionID string, out Emitter, p agent.Persona, text string) bool {
	return e.emit(ctx, sessionID, out, Event{EventBotMessage, botMessage(p, text, e.opts.Now())})
}

// exchange is one staged exchange against a claimed record.
type exchange struct {
	engine        *Engine
	sessionID     string
	negotiationID string
	service       domain.ServiceType
	out           Emitter
	releaseOnce   sync.Once
}

func (x *exchange) emit(ctx context.Context, name string, data any) bool {
	return x.engine.emit(ctx, x.sessionID, x.out, Event{Name: name, Data: data})
}

// release ends the claim on the record so accept or reject can proceed.
func (x *exchange) release() {
	x.releaseOnce.Do(func() { x.engine.registry.EndExchange(x.sessionID, x.negotiationID) })
}
