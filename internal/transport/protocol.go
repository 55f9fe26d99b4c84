package transport

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Inbound event names. Outbound names live in the negotiation package.
const (
	EventUserMessage      = "user_message"
	EventAcceptOffer      = "accept_offer"
	EventRejectOffer      = "reject_offer"
	EventPaymentCompleted = "payment_completed"
	EventPing             = "ping"
	EventPong             = "pong"
)

const (
	msgInternal     = "Sorry, something went wrong. Please try again."
	msgBusy         = "I'm still working on your earlier requests. Please wait a moment."
	msgRateLimited  = "You're sending messages too quickly. Please slow down a little."
	msgMalformed    = "Sorry, I couldn't read that request."
	msgUnknownEvent = "That action isn't supported."
)

// envelope is the wire frame in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type userMessage struct {
	Text      string `json:"text"`
	Message   string `json:"message"` // older clients
	Timestamp string `json:"timestamp,omitempty"`
}

func (m userMessage) text() string {
	if s := strings.TrimSpace(m.Text); s != "" {
		return s
	}
	return strings.TrimSpace(m.Message)
}

type offerAction struct {
	NegotiationID string `json:"negotiationId"`
	Feedback      string `json:"feedback,omitempty"`
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}
