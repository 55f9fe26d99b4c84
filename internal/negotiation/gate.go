package negotiation

import (
	"strings"
	"unicode/utf8"

	"github.com/ashureev/insurance-a2a/internal/domain"
)

// GateReason names the check that decided a gate verdict.
type GateReason string

const (
	ReasonOpen               GateReason = "open"
	ReasonNotRequested       GateReason = "not_requested"
	ReasonSuppressed         GateReason = "suppressed"
	ReasonAcknowledgment     GateReason = "acknowledgment"
	ReasonNoRoute            GateReason = "no_route"
	ReasonInsufficientDetail GateReason = "insufficient_detail"
)

var acknowledgments = map[string]struct{}{
	"ok": {}, "okay": {}, "yes": {}, "sure": {}, "proceed": {}, "go ahead": {},
	"accept": {}, "agree": {}, "thanks": {}, "thank you": {},
}

// IsAcknowledgment reports whether the whole message is a bare acknowledgment.
// Case and trailing punctuation are ignored.
func IsAcknowledgment(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	m = strings.TrimRight(m, ".!")
	_, ok := acknowledgments[strings.TrimSpace(m)]
	return ok
}

// GateInput is everything the gate looks at.
type GateInput struct {
	RequiresA2A bool
	Suppressed  bool
	Message     string
	ServiceType domain.ServiceType
	Detail      string
}

// Verdict is the gate's decision.
type Verdict struct {
	Open   bool
	Reason GateReason
}

// Gate decides whether a requester decision starts an exchange. It is a pure
// function of its input.
type Gate struct {
	MinDetailLength int
}

// Evaluate applies the checks in order and reports the first that fails.
func (g Gate) Evaluate(in GateInput) Verdict {
	switch {
	case !in.RequiresA2A:
		return Verdict{Reason: ReasonNotRequested}
	case in.Suppressed:
		return Verdict{Reason: ReasonSuppressed}
	case IsAcknowledgment(in.Message):
		return Verdict{Reason: ReasonAcknowledgment}
	case in.ServiceType == domain.ServiceGeneral || !in.ServiceType.Valid():
		return Verdict{Reason: ReasonNoRoute}
	}
	if in.ServiceType == domain.ServicePolicyInfo || in.ServiceType == domain.ServiceClaims {
		detail := strings.TrimSpace(in.Detail)
		if detail == "" {
			detail = strings.TrimSpace(in.Message)
		}
		if utf8.RuneCountInString(detail) <= g.MinDetailLength {
			return Verdict{Reason: ReasonInsufficientDetail}
		}
	}
	return Verdict{Open: true, Reason: ReasonOpen}
}
