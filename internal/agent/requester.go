package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/llm"
)

// Decision is the requester's structured answer for one user message.
type Decision struct {
	Response       string             `json:"response"`
	ServiceType    domain.ServiceType `json:"serviceType"`
	RequiresA2A    bool               `json:"requiresA2A"`
	ServiceDetails string             `json:"serviceDetails"`
}

// FallbackDecision is used when the requester cannot produce a valid decision.
func FallbackDecision() Decision {
	return Decision{
		Response:    "I'm having trouble processing your request right now. Could you please try again in a moment?",
		ServiceType: domain.ServiceGeneral,
	}
}

var decisionSchema = &llm.Schema{
	Name:        "process_insurance_request",
	Description: "Reply to the user and decide whether an insurance company agent must act",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response":       map[string]any{"type": "string", "description": "Reply shown to the user"},
			"serviceType":    map[string]any{"type": "string", "enum": serviceTypeEnum()},
			"requiresA2A":    map[string]any{"type": "boolean"},
			"serviceDetails": map[string]any{"type": "string", "description": "What the company agent must do"},
		},
		"required":             []string{"response", "serviceType", "requiresA2A", "serviceDetails"},
		"additionalProperties": false,
	},
}

func serviceTypeEnum() []string {
	out := make([]string, len(domain.ServiceTypes))
	for i, t := range domain.ServiceTypes {
		out[i] = string(t)
	}
	return out
}

// RequesterInput is everything the requester sees for one turn.
type RequesterInput struct {
	Message        string
	History        []domain.ConversationTurn
	Suppressed     bool
	Acknowledgment bool
}

// Requester is the user's personal agent.
type Requester struct {
	llm      llm.Completer
	profiles ProfileSource
	opts     Options
}

// NewRequester creates a requester backed by the completion provider.
func NewRequester(c llm.Completer, profiles ProfileSource, opts Options) *Requester {
	return &Requester{llm: c, profiles: profiles, opts: opts.withDefaults("requester")}
}

// Decide produces the decision for in. On failure it returns the fallback
// decision together with the error.
func (r *Requester) Decide(ctx context.Context, in RequesterInput) (Decision, error) {
	p := r.profiles.Current()
	msgs := historyMessages(in.History)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: in.Message})

	resp, err := r.llm.Complete(ctx, llm.Request{
		Model:       r.opts.Model,
		System:      RequesterPrompt(p, in.Suppressed, in.Acknowledgment),
		Messages:    msgs,
		Temperature: 0.7,
		MaxTokens:   500,
		Schema:      decisionSchema,
	})
	if err != nil {
		return FallbackDecision(), fmt.Errorf("requester completion: %w", err)
	}
	d, err := ParseDecision(resp.Content)
	if err != nil {
		r.opts.Logger.Warn("Requester output rejected", "error", err)
		return FallbackDecision(), err
	}
	return d, nil
}

// ParseDecision validates a raw completion against the decision schema.
func ParseDecision(content string) (Decision, error) {
	var raw struct {
		Response       *string             `json:"response"`
		ServiceType    *domain.ServiceType `json:"serviceType"`
		RequiresA2A    *bool               `json:"requiresA2A"`
		ServiceDetails *string             `json:"serviceDetails"`
	}
	if err := decodeStrict(content, &raw); err != nil {
		return Decision{}, err
	}
	if raw.Response == nil || raw.ServiceType == nil || raw.RequiresA2A == nil || raw.ServiceDetails == nil {
		return Decision{}, fmt.Errorf("%w: missing required field", ErrMalformedOutput)
	}
	if strings.TrimSpace(*raw.Response) == "" {
		return Decision{}, fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	if !raw.ServiceType.Valid() {
		return Decision{}, fmt.Errorf("%w: unknown service type %q", ErrMalformedOutput, *raw.ServiceType)
	}
	return Decision{
		Response:       *raw.Response,
		ServiceType:    *raw.ServiceType,
		RequiresA2A:    *raw.RequiresA2A,
		ServiceDetails: *raw.ServiceDetails,
	}, nil
}
