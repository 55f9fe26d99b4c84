package negotiation

import (
	"context"
	"time"

	"github.com/ashureev/insurance-a2a/internal/agent"
	"github.com/ashureev/insurance-a2a/internal/domain"
)

// Outbound event names.
const (
	EventBotMessage          = "bot_message"
	EventNegotiationUpdate   = "negotiation_update"
	EventNegotiationStart    = "negotiation_start"
	EventNegotiationComplete = "negotiation_complete"
	EventError               = "error"
)

// Event is one outbound message for a session.
type Event struct {
	Name string
	Data any
}

// Emitter delivers events to a session's client.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev Event) error

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, ev Event) error { return f(ctx, ev) }

// BotMessage is a chat message from one of the agents.
type BotMessage struct {
	Bot           string                 `json:"bot"`
	Name          string                 `json:"name"`
	Avatar        string                 `json:"avatar"`
	Message       string                 `json:"message"`
	HTML          string                 `json:"html,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Offer         *domain.Offer          `json:"offer,omitempty"`
	PaymentData   *domain.PaymentDetails `json:"paymentData,omitempty"`
	PolicyData    *domain.PolicyDocument `json:"policyData,omitempty"`
	ClaimData     *domain.ClaimResult    `json:"claimData,omitempty"`
	CheckupData   *domain.CheckupResult  `json:"checkupData,omitempty"`
	NegotiationID string                 `json:"negotiationId,omitempty"`
}

// ProgressUpdate is one staged progress tick. Steps count from 1.
type ProgressUpdate struct {
	NegotiationID string    `json:"negotiationId"`
	Step          int       `json:"step"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// StageStart opens a staged exchange.
type StageStart struct {
	NegotiationID string             `json:"negotiationId"`
	ServiceType   domain.ServiceType `json:"serviceType"`
	Timestamp     time.Time          `json:"timestamp"`
}

// StageComplete closes a staged exchange.
type StageComplete struct {
	ServiceID string `json:"serviceId"`
}

// ErrorNotice is a user-visible failure.
type ErrorNotice struct {
	Message string `json:"message"`
}

func botMessage(p agent.Persona, text string, now time.Time) BotMessage {
	return BotMessage{Bot: p.ID, Name: p.Name, Avatar: p.Avatar, Message: text, Timestamp: now}
}
