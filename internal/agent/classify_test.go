package agent

import (
	"context"
	"testing"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/pricing"
	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifier(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.ClaimKind{
		"I was hospitalized for 3 days":          domain.ClaimHealth,
		"medical bills after surgery":            domain.ClaimHealth,
		"my car hit a divider":                   domain.ClaimMotor,
		"accident near the office":               domain.ClaimMotor,
		"file a life claim for my father":        domain.ClaimLife,
		"I want to claim something":              domain.ClaimUnknown,
		"my lifestyle changed, card got scanned": domain.ClaimUnknown,
	}
	for text, want := range cases {
		assert.Equal(t, want, KeywordClassifier{}.Classify(context.Background(), text), text)
	}
}

type countingClassifier struct {
	kind  domain.ClaimKind
	calls int
}

func (c *countingClassifier) Classify(context.Context, string) domain.ClaimKind {
	c.calls++
	return c.kind
}

func TestLayeredClassifierConsultsModelOnlyForUnknown(t *testing.T) {
	t.Parallel()

	model := &countingClassifier{kind: domain.ClaimLife}
	l := LayeredClassifier{Rules: KeywordClassifier{}, Model: model}

	assert.Equal(t, domain.ClaimMotor, l.Classify(context.Background(), "car dented"))
	assert.Equal(t, 0, model.calls)

	assert.Equal(t, domain.ClaimLife, l.Classify(context.Background(), "my policy payout"))
	assert.Equal(t, 1, model.calls)
}

func TestModelClassifier(t *testing.T) {
	t.Parallel()

	fake := &scriptedLLM{replies: []string{`{"claimType":"motor"}`, `{"claimType":"travel"}`}}
	m := ModelClassifier{LLM: fake}
	assert.Equal(t, domain.ClaimMotor, m.Classify(context.Background(), "x"))
	assert.Equal(t, domain.ClaimUnknown, m.Classify(context.Background(), "y"))
	assert.Equal(t, domain.ClaimUnknown, ModelClassifier{}.Classify(context.Background(), "z"))
}

func TestClassifyInsurance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.KindHealth, ClassifyInsurance("health insurance for my family"))
	assert.Equal(t, domain.KindLife, ClassifyInsurance("a term plan or life cover"))
	assert.Equal(t, domain.KindHome, ClassifyInsurance("insure my house"))
	assert.Equal(t, domain.KindCar, ClassifyInsurance("renew my car policy"))
	assert.Equal(t, domain.KindCar, ClassifyInsurance("best deal please"))
}

func TestCarQueryFrom(t *testing.T) {
	t.Parallel()

	p := testProfile()
	q := CarQueryFrom("third party cover for a Swift 2018", p)
	assert.Equal(t, pricing.CarQuery{Model: "swift", Year: 2018, Coverage: pricing.CoverageThirdParty}, q)

	q = CarQueryFrom("insure my car", p)
	assert.Equal(t, "Honda City", q.Model)
	assert.Equal(t, 2020, q.Year)
	assert.Equal(t, pricing.CoverageComprehensive, q.Coverage)

	q = CarQueryFrom("insure my car", domain.UserProfile{})
	assert.Equal(t, "generic car", q.Model)
	assert.Equal(t, 2020, q.Year)
}

func TestExtractAmount(t *testing.T) {
	t.Parallel()

	cases := map[string]int64{
		"bill of ₹50,000 at the hospital": 50000,
		"Rs. 12000 for repairs":           12000,
		"about 2 lakh":                    200000,
		"roughly 40k":                     40000,
		"INR 1,20,000":                    120000,
		"in 2024 after 3 days":            0,
		"it took 24 hours":                0,
		"₹200000000000000 lakhs":          0,
		"₹99999999999999999999 then ₹500": 500,
	}
	for text, want := range cases {
		assert.Equal(t, want, ExtractAmount(text), text)
	}
}
