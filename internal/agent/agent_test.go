package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/llm"
	"github.com/ashureev/insurance-a2a/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type scriptedLLM struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return llm.Response{}, s.err
	}
	if len(s.replies) == 0 {
		return llm.Response{}, errors.New("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return llm.Response{Content: r}, nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type staticProfiles struct{ p domain.UserProfile }

func (s staticProfiles) Current() domain.UserProfile { return s.p }

type fakeQuotes struct {
	quote pricing.Quote
	err   error
	got   []pricing.CarQuery
}

func (f *fakeQuotes) CarQuote(_ context.Context, q pricing.CarQuery) (pricing.Quote, error) {
	f.got = append(f.got, q)
	return f.quote, f.err
}

func testOptions() Options {
	return Options{
		Model: "test-model",
		Now:   func() time.Time { return fixedNow },
		IntN:  func(int) int { return 42 },
	}
}

func testProfile() domain.UserProfile {
	return domain.UserProfile{
		Name:       "Asha",
		Age:        34,
		Location:   "Mumbai",
		Occupation: "Engineer",
		Cars: []domain.Vehicle{{
			Make:         "Honda",
			Model:        "City",
			Year:         2020,
			Registration: "MH02AB1234",
			IsPrimary:    true,
			InsuranceDetails: &domain.Policy{
				PolicyType: "Comprehensive",
				Coverage:   "₹7,00,000",
				ValidTill:  "2099-12-31",
			},
		}},
		Health: domain.Health{PreferredHospitals: []string{"Lilavati Hospital"}},
		Insurance: domain.Portfolio{
			BudgetRange: domain.BudgetRange{Min: 15000, Max: 25000},
			HealthInsurance: &domain.Policy{
				PolicyType: "Family Floater",
				Coverage:   "₹5,00,000",
				ValidTill:  "2099-12-31",
				Features:   []string{"Annual health checkup"},
			},
			LifeInsurance: &domain.Policy{PolicyType: "Term", Coverage: "₹1,00,00,000", ValidTill: "2099-12-31"},
		},
	}
}

func TestParseDecision(t *testing.T) {
	t.Parallel()

	d, err := ParseDecision("```json\n{\"response\":\"On it\",\"serviceType\":\"claims\",\"requiresA2A\":true,\"serviceDetails\":\"car hit a pole\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceClaims, d.ServiceType)
	assert.True(t, d.RequiresA2A)

	bad := []string{
		`{"response":"x","serviceType":"claims","requiresA2A":true}`,
		`{"response":"x","serviceType":"claims","requiresA2A":true,"serviceDetails":"","extra":1}`,
		`{"response":"x","serviceType":"travel","requiresA2A":false,"serviceDetails":""}`,
		`{"response":"  ","serviceType":"general","requiresA2A":false,"serviceDetails":""}`,
		`not json`,
	}
	for _, raw := range bad {
		_, err := ParseDecision(raw)
		assert.ErrorIs(t, err, ErrMalformedOutput, raw)
	}
}

func TestRequesterDecide(t *testing.T) {
	t.Parallel()

	fake := &scriptedLLM{replies: []string{`{"response":"Sure","serviceType":"policy_info","requiresA2A":true,"serviceDetails":"comprehensive car insurance for Honda City 2020"}`}}
	r := NewRequester(fake, staticProfiles{testProfile()}, testOptions())

	d, err := r.Decide(context.Background(), RequesterInput{
		Message:    "I need car insurance",
		History:    []domain.ConversationTurn{{Role: domain.RoleUser, Content: "hi"}, {Role: domain.RoleAssistant, Content: "hello"}},
		Suppressed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ServicePolicyInfo, d.ServiceType)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "test-model", req.Model)
	require.NotNil(t, req.Schema)
	assert.Equal(t, "process_insurance_request", req.Schema.Name)
	assert.Contains(t, req.System, "Asha")
	assert.Contains(t, req.System, "transaction was just completed")
	require.Len(t, req.Messages, 3)
	assert.Equal(t, llm.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, "I need car insurance", req.Messages[2].Content)
}

func TestRequesterFallsBack(t *testing.T) {
	t.Parallel()

	r := NewRequester(&scriptedLLM{err: llm.ErrUnavailable}, staticProfiles{testProfile()}, testOptions())
	d, err := r.Decide(context.Background(), RequesterInput{Message: "hello"})
	assert.ErrorIs(t, err, llm.ErrUnavailable)
	assert.Equal(t, FallbackDecision(), d)
	assert.False(t, d.RequiresA2A)

	r = NewRequester(&scriptedLLM{replies: []string{`{"response":"x"}`}}, staticProfiles{testProfile()}, testOptions())
	d, err = r.Decide(context.Background(), RequesterInput{Message: "hello"})
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.Equal(t, domain.ServiceGeneral, d.ServiceType)
}

func TestProviderNegotiateUsesQuote(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{quote: pricing.Quote{PolicyName: "Auto Secure", PlanName: "Comprehensive Plan", Premium: 24175, Source: "Pricing Engine"}}
	fake := &scriptedLLM{replies: []string{`{"negotiationSteps":["a","b","c","d"],"finalOffer":{"premium":"₹22,500/year","coverage":"IDV","discount":"20% NCB","features":["Zero depreciation"]},"reasoning":"competitive"}`}}
	p := NewProvider(fake, staticProfiles{testProfile()}, quotes, nil, testOptions())

	prop, err := p.Negotiate(context.Background(), NegotiationRequest{Requirements: "comprehensive insurance for my Honda City 2020"})
	require.NoError(t, err)
	assert.Equal(t, domain.KindCar, prop.Kind)
	assert.Equal(t, "Auto Secure", prop.Offer.PolicyName)
	assert.Equal(t, "Pricing Engine", prop.Source)
	assert.Equal(t, int64(22500), prop.Offer.PremiumAmount())
	assert.Len(t, prop.Steps, 4)

	require.Len(t, quotes.got, 1)
	assert.Equal(t, "city", quotes.got[0].Model)
	assert.Equal(t, 2020, quotes.got[0].Year)
	assert.Contains(t, fake.requests[0].Messages[0].Content, "Auto Secure")
}

func TestProviderNegotiateDegrades(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{quote: pricing.Quote{PolicyName: "Auto Secure", Premium: 24175, Source: "Pricing Engine"}}
	p := NewProvider(&scriptedLLM{err: errors.New("boom")}, staticProfiles{testProfile()}, quotes, nil, testOptions())
	prop, err := p.Negotiate(context.Background(), NegotiationRequest{Requirements: "car insurance please"})
	require.NoError(t, err)
	assert.Equal(t, "₹24,175/year", prop.Offer.Premium)

	p = NewProvider(&scriptedLLM{replies: []string{"sorry, no json"}}, staticProfiles{testProfile()}, nil, nil, testOptions())
	prop, err = p.Negotiate(context.Background(), NegotiationRequest{Requirements: "health insurance for my family"})
	require.NoError(t, err)
	assert.Equal(t, domain.KindHealth, prop.Kind)
	assert.Equal(t, "₹12,000/year", prop.Offer.Premium)
	assert.NotEmpty(t, prop.Steps)
}

func TestImproveOffer(t *testing.T) {
	t.Parallel()

	prev := domain.Offer{Premium: "₹15,000/year", Discount: "20% first-year discount, 5% online", Features: []string{"a"}}
	got := ImproveOffer(prev)
	assert.Equal(t, "₹13,500/year", got.Premium)
	assert.Equal(t, "25% first-year discount, 5% online", got.Discount)

	got.Features[0] = "mutated"
	assert.Equal(t, "a", prev.Features[0])

	got = ImproveOffer(domain.Offer{Premium: "₹10,000/year", Discount: "loyalty bonus"})
	assert.Equal(t, "15% additional discount", got.Discount)
}

func TestRenegotiateAlwaysLowers(t *testing.T) {
	t.Parallel()

	prev := domain.Offer{Premium: "₹15,000/year", Discount: "20% discount"}
	higher := `{"negotiationSteps":["x"],"finalOffer":{"premium":"₹16,000/year","coverage":"c","discount":"d","features":[]},"reasoning":"r"}`
	p := NewProvider(&scriptedLLM{replies: []string{higher}}, staticProfiles{testProfile()}, nil, nil, testOptions())
	prop, err := p.Renegotiate(context.Background(), domain.KindCar, prev, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, int64(13500), prop.Offer.PremiumAmount())

	lower := `{"negotiationSteps":["x"],"finalOffer":{"premium":"₹14,000/year","coverage":"c","discount":"d","features":[]},"reasoning":"r"}`
	p = NewProvider(&scriptedLLM{replies: []string{lower}}, staticProfiles{testProfile()}, nil, nil, testOptions())
	prop, err = p.Renegotiate(context.Background(), domain.KindCar, prev, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, int64(14000), prop.Offer.PremiumAmount())

	p = NewProvider(&scriptedLLM{err: errors.New("down")}, staticProfiles{testProfile()}, nil, nil, testOptions())
	prop, err = p.Renegotiate(context.Background(), domain.KindCar, prev, "too expensive")
	require.NoError(t, err)
	assert.Less(t, prop.Offer.PremiumAmount(), prev.PremiumAmount())
}

func TestPaymentAndPolicy(t *testing.T) {
	t.Parallel()

	p := NewProvider(llm.Offline{}, staticProfiles{testProfile()}, nil, nil, testOptions())
	offer := domain.Offer{Premium: "₹13,500/year", Coverage: "₹8,00,000", Features: []string{"Zero depreciation"}}

	pay, err := p.PreparePayment(context.Background(), domain.KindCar, offer)
	require.NoError(t, err)
	ms := fixedNow.UnixMilli()
	assert.Equal(t, fmt.Sprintf("PAY%d", ms), pay.PaymentID)
	assert.Equal(t, fmt.Sprintf("TXN%d", ms), pay.TransactionID)
	assert.Equal(t, "₹13,500", pay.Amount)
	assert.Equal(t, int64(13500), pay.AmountValue)
	assert.Equal(t, "01 Jul 2025", pay.DueDate)
	assert.Equal(t, "TATA_AIG_MERCHANT", pay.MerchantID)

	doc, err := p.IssuePolicy(context.Background(), domain.PendingPayment{Kind: domain.KindCar, Offer: offer, Payment: pay},
		domain.PaymentConfirmation{PaymentID: pay.PaymentID, TransactionID: "TXN-client", Status: "success"})
	require.NoError(t, err)
	number := fmt.Sprintf("TAIG%d042", ms)
	assert.Equal(t, number, doc.PolicyNumber)
	assert.Equal(t, "https://documents.tataaig.com/policy/"+number+".pdf", doc.DocumentURL)
	assert.Equal(t, "https://documents.tataaig.com/certificate/"+number+".pdf", doc.CertificateURL)
	assert.Equal(t, "01 Jun 2026", doc.ExpiryDate)
	assert.Equal(t, "TXN-client", doc.TransactionID)
	assert.Equal(t, "₹13,500", doc.Premium)

	fb := p.FallbackPayment(domain.KindHealth)
	assert.Equal(t, int64(15000), fb.AmountValue)
}
