// Package agent implements the decision agents: the requester that talks to the
// user and the provider, claims and scheduling agents it delegates to.
package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/llm"
)

// ErrMalformedOutput is returned when a completion does not match its schema.
var ErrMalformedOutput = errors.New("agent: malformed structured output")

// Persona identifies an agent in outbound messages.
type Persona struct {
	ID     string `json:"bot"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Agent personas.
var (
	RequesterPersona = Persona{ID: "personal", Name: "PersonalBot", Avatar: "🤖"}
	ProviderPersona  = Persona{ID: "tata_aig", Name: "TATA AIG", Avatar: "🏢"}
	ClaimsPersona    = Persona{ID: "claims", Name: "TATA AIG Claims Agent", Avatar: "🏥"}
	SchedulerPersona = Persona{ID: "health_checkup", Name: "TATA 1mg Health Checkup Agent", Avatar: "🩺"}
)

// ProfileSource exposes the published user profile.
type ProfileSource interface {
	Current() domain.UserProfile
}

// Options are shared by every agent constructor.
type Options struct {
	Model  string
	Now    func() time.Time
	IntN   func(n int) int
	Logger *slog.Logger
}

func (o Options) withDefaults(component string) Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.IntN == nil {
		o.IntN = rand.IntN
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Logger = o.Logger.With("component", component)
	return o
}

// referenceID builds ids such as CLM1718000000000042.
func (o Options) referenceID(prefix string) string {
	return fmt.Sprintf("%s%d%03d", prefix, o.Now().UnixMilli(), o.IntN(1000))
}

// decodeStrict decodes a completion into v, rejecting unknown fields.
func decodeStrict(content string, v any) error {
	dec := json.NewDecoder(strings.NewReader(llm.ExtractJSON(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

func historyMessages(turns []domain.ConversationTurn) []llm.Message {
	out := make([]llm.Message, 0, len(turns)+1)
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Content})
	}
	return out
}
