package negotiation

import (
	"strings"
	"testing"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsAcknowledgment(t *testing.T) {
	t.Parallel()

	for _, msg := range []string{"ok", "OK", " Okay. ", "thanks!", "Thank you", "go ahead", "Proceed", "yes"} {
		assert.True(t, IsAcknowledgment(msg), msg)
	}
	for _, msg := range []string{"ok but cheaper", "yes I want car insurance", "okey", "", "thanks for the offer, what about health?"} {
		assert.False(t, IsAcknowledgment(msg), msg)
	}
}

func TestGateEvaluate(t *testing.T) {
	t.Parallel()

	long := "comprehensive car insurance for my Honda City 2020"
	g := Gate{MinDetailLength: 30}
	cases := []struct {
		name string
		in   GateInput
		want GateReason
	}{
		{"not requested", GateInput{Message: long, ServiceType: domain.ServicePolicyInfo, Detail: long}, ReasonNotRequested},
		{"suppressed", GateInput{RequiresA2A: true, Suppressed: true, Message: long, ServiceType: domain.ServicePolicyInfo, Detail: long}, ReasonSuppressed},
		{"acknowledgment", GateInput{RequiresA2A: true, Message: "sure", ServiceType: domain.ServicePolicyInfo, Detail: long}, ReasonAcknowledgment},
		{"general", GateInput{RequiresA2A: true, Message: long, ServiceType: domain.ServiceGeneral, Detail: long}, ReasonNoRoute},
		{"unknown service", GateInput{RequiresA2A: true, Message: long, ServiceType: "travel", Detail: long}, ReasonNoRoute},
		{"short detail", GateInput{RequiresA2A: true, Message: "claim", ServiceType: domain.ServiceClaims, Detail: "car dent"}, ReasonInsufficientDetail},
		{"detail falls back to message", GateInput{RequiresA2A: true, Message: long, ServiceType: domain.ServiceClaims}, ReasonOpen},
		{"checkup skips detail", GateInput{RequiresA2A: true, Message: "book checkup", ServiceType: domain.ServiceHealthCheckup}, ReasonOpen},
		{"open", GateInput{RequiresA2A: true, Message: "I need insurance", ServiceType: domain.ServicePolicyInfo, Detail: long}, ReasonOpen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := g.Evaluate(tc.in)
			assert.Equal(t, tc.want, v.Reason)
			assert.Equal(t, tc.want == ReasonOpen, v.Open)
		})
	}
}

func TestGateDetailThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	g := Gate{MinDetailLength: 30}
	in := GateInput{RequiresA2A: true, Message: "x", ServiceType: domain.ServiceClaims}

	in.Detail = strings.Repeat("a", 30)
	assert.False(t, g.Evaluate(in).Open)
	in.Detail = strings.Repeat("a", 31)
	assert.True(t, g.Evaluate(in).Open)
	in.Detail = strings.Repeat("₹", 31)
	assert.True(t, g.Evaluate(in).Open)
}

func TestGateIsDeterministic(t *testing.T) {
	t.Parallel()

	g := Gate{MinDetailLength: 30}
	messages := []string{"ok", "thanks", "I had an accident and need to file a claim today", "short"}
	services := append([]domain.ServiceType{"bogus"}, domain.ServiceTypes...)
	for _, requires := range []bool{true, false} {
		for _, suppressed := range []bool{true, false} {
			for _, msg := range messages {
				for _, st := range services {
					in := GateInput{RequiresA2A: requires, Suppressed: suppressed, Message: msg, ServiceType: st}
					assert.Equal(t, g.Evaluate(in), g.Evaluate(in))
				}
			}
		}
	}
}
