package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/llm"
	"github.com/ashureev/insurance-a2a/internal/pricing"
)

const (
	merchantID         = "TATA_AIG_MERCHANT"
	paymentRedirectURL = "https://payment.tataaig.com/secure"
	documentBaseURL    = "https://documents.tataaig.com"
	defaultPremium     = 15000
	displayDateLayout  = "02 Jan 2006"
)

// PaymentSteps are reported while a payment is being set up.
var PaymentSteps = []string{
	"PersonalBot initiating payment setup with TATA AIG...",
	"TATA AIG processing application details...",
	"Calculating payment terms and due dates...",
	"Generating secure payment gateway...",
	"Finalizing payment setup...",
}

// PolicySteps are reported while a policy is being issued.
var PolicySteps = []string{
	"PersonalBot initiating policy generation with TATA AIG...",
	"TATA AIG validating payment confirmation...",
	"Generating unique policy number...",
	"Creating policy documents and certificate...",
	"Preparing policy activation...",
	"Finalizing policy issuance...",
}

const providerSystemPrompt = `You are TATA AIG's representative, negotiating insurance deals with personal assistant bots on behalf of their users.

TATA AIG is a leading insurance provider in India offering car, health, life and home insurance with competitive pricing and a strong claim settlement record.

Start with standard rates but be flexible. Offer meaningful discounts for good customers, include valuable features and adjust to the user's requirements. Quote premiums in Indian Rupees as "₹XX,XXX/year".`

var proposalSchema = &llm.Schema{
	Name:        "insurance_offer",
	Description: "A negotiated insurance offer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"negotiationSteps": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"finalOffer": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"premium":  map[string]any{"type": "string"},
					"coverage": map[string]any{"type": "string"},
					"discount": map[string]any{"type": "string"},
					"features": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required":             []string{"premium", "coverage", "discount", "features"},
				"additionalProperties": false,
			},
			"reasoning": map[string]any{"type": "string"},
		},
		"required":             []string{"negotiationSteps", "finalOffer", "reasoning"},
		"additionalProperties": false,
	},
}

var percentPattern = regexp.MustCompile(`\d+%`)

// QuoteSource prices motor quotes.
type QuoteSource interface {
	CarQuote(ctx context.Context, q pricing.CarQuery) (pricing.Quote, error)
}

// NegotiationRequest is what the requester hands the provider.
type NegotiationRequest struct {
	Requirements     string
	RequesterMessage string
}

// Provider is the insurance company agent.
type Provider struct {
	llm      llm.Completer
	profiles ProfileSource
	quotes   QuoteSource
	catalog  *pricing.Catalog
	opts     Options
}

// NewProvider creates a provider agent. quotes may be nil.
func NewProvider(c llm.Completer, profiles ProfileSource, quotes QuoteSource, catalog *pricing.Catalog, opts Options) *Provider {
	if catalog == nil {
		catalog = pricing.Baseline()
	}
	return &Provider{llm: c, profiles: profiles, quotes: quotes, catalog: catalog, opts: opts.withDefaults("provider")}
}

// Negotiate produces an offer for the request. Completion failures degrade
// to a quote-backed or catalog offer and are not returned as errors.
func (p *Provider) Negotiate(ctx context.Context, req NegotiationRequest) (domain.Proposal, error) {
	text := req.Requirements + " " + req.RequesterMessage
	kind := ClassifyInsurance(text)
	profile := p.profiles.Current()

	var quote *pricing.Quote
	if kind == domain.KindCar && p.quotes != nil {
		q, err := p.quotes.CarQuote(ctx, CarQueryFrom(text, profile))
		if err != nil {
			p.opts.Logger.Warn("Quote lookup failed", "error", err)
		} else {
			quote = &q
		}
	}

	resp, err := p.llm.Complete(ctx, llm.Request{
		Model:       p.opts.Model,
		System:      providerSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: negotiationPrompt(kind, req, profile, quote)}},
		Temperature: 0.8,
		MaxTokens:   800,
		Schema:      proposalSchema,
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.Proposal{}, ctx.Err()
		}
		p.opts.Logger.Warn("Provider completion failed, using baseline offer", "error", err, "kind", kind)
		return p.baselineProposal(kind, quote), nil
	}
	prop, err := parseProposal(resp.Content)
	if err != nil {
		p.opts.Logger.Warn("Provider output rejected, using baseline offer", "error", err, "kind", kind)
		return p.baselineProposal(kind, quote), nil
	}
	prop.Kind = kind
	if quote != nil {
		prop.Offer.PolicyName = quote.PolicyName
		prop.Offer.PlanName = quote.PlanName
		prop.Source = quote.Source
	}
	return prop, nil
}

// FallbackProposal is the catalog offer for a request, used when the
// provider cannot be reached at all.
func (p *Provider) FallbackProposal(requirements string) domain.Proposal {
	return p.baselineProposal(ClassifyInsurance(requirements), nil)
}

func (p *Provider) baselineProposal(kind domain.InsuranceKind, quote *pricing.Quote) domain.Proposal {
	label := kind.Label()
	if quote != nil {
		return domain.Proposal{
			Steps: []string{
				fmt.Sprintf("Analyzing %s requirements...", label),
				"Accessing TATA AIG real-time pricing data...",
				"Calculating personalized premium based on current rates...",
				"Preparing competitive offer with maximum benefits...",
			},
			Offer:     quote.Offer(),
			Reasoning: fmt.Sprintf("This offer is based on current TATA AIG rates for %s.", label),
			Kind:      kind,
			Source:    quote.Source,
		}
	}
	return domain.Proposal{
		Steps: []string{
			fmt.Sprintf("Analyzing %s requirements...", label),
			"Reviewing TATA AIG policy options...",
			"Calculating personalized premium rates...",
			"Preparing competitive offer with maximum benefits...",
		},
		Offer:     p.catalog.Offer(kind),
		Reasoning: fmt.Sprintf("This offer provides comprehensive coverage and competitive pricing for %s.", label),
		Kind:      kind,
		Source:    "Baseline Catalog",
	}
}

// Renegotiate answers a rejection. The returned premium is always strictly
// lower than the previous one when the previous premium is known.
func (p *Provider) Renegotiate(ctx context.Context, kind domain.InsuranceKind, previous domain.Offer, feedback string) (domain.Proposal, error) {
	prev, err := json.Marshal(previous)
	if err != nil {
		return domain.Proposal{}, fmt.Errorf("marshal previous offer: %w", err)
	}
	prompt := fmt.Sprintf("Previous offer: %s\nUser feedback: %s\n\nProvide an improved offer addressing the user's concerns. Be more competitive while staying profitable.", prev, feedback)

	resp, err := p.llm.Complete(ctx, llm.Request{
		Model:       p.opts.Model,
		System:      providerSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0.9,
		MaxTokens:   800,
		Schema:      proposalSchema,
	})
	var prop domain.Proposal
	if err == nil {
		prop, err = parseProposal(resp.Content)
	}
	if err != nil {
		if ctx.Err() != nil {
			return domain.Proposal{}, ctx.Err()
		}
		p.opts.Logger.Warn("Renegotiation degraded to discount", "error", err)
		return p.ImprovedProposal(kind, previous), nil
	}
	old := previous.PremiumAmount()
	if old > 0 && prop.Offer.PremiumAmount() >= old {
		p.opts.Logger.Info("Renegotiated premium not lower, applying discount", "previous", old, "proposed", prop.Offer.PremiumAmount())
		return p.ImprovedProposal(kind, previous), nil
	}
	prop.Kind = kind
	if prop.Offer.PolicyName == "" {
		prop.Offer.PolicyName = previous.PolicyName
		prop.Offer.PlanName = previous.PlanName
	}
	return prop, nil
}

// ImprovedProposal wraps ImproveOffer with renegotiation steps.
func (p *Provider) ImprovedProposal(kind domain.InsuranceKind, previous domain.Offer) domain.Proposal {
	return domain.Proposal{
		Steps: []string{
			"Reviewing customer feedback...",
			"Checking available discount headroom...",
			"Applying loyalty and retention discounts...",
			"Preparing revised offer...",
		},
		Offer:     ImproveOffer(previous),
		Reasoning: "Revised offer with additional discount applied.",
		Kind:      kind,
	}
}

// ImproveOffer cuts the premium by 10% and raises the first percentage in
// the discount by 5 points.
func ImproveOffer(prev domain.Offer) domain.Offer {
	out := prev.Clone()
	if amount := prev.PremiumAmount(); amount > 0 {
		out.Premium = pricing.FormatRupees(amount*9/10) + "/year"
	}
	if percentPattern.MatchString(out.Discount) {
		replaced := false
		out.Discount = percentPattern.ReplaceAllStringFunc(out.Discount, func(m string) string {
			if replaced {
				return m
			}
			replaced = true
			n, _ := strconv.Atoi(strings.TrimSuffix(m, "%"))
			return strconv.Itoa(n+5) + "%"
		})
	} else {
		out.Discount = "15% additional discount"
	}
	return out
}

// PreparePayment sets up the simulated payment for an accepted offer.
func (p *Provider) PreparePayment(_ context.Context, kind domain.InsuranceKind, offer domain.Offer) (domain.PaymentDetails, error) {
	amount := offer.PremiumAmount()
	if amount <= 0 {
		amount = defaultPremium
	}
	return p.payment(kind, amount, offer.Features), nil
}

// FallbackPayment is the payment set up when the provider fails.
func (p *Provider) FallbackPayment(kind domain.InsuranceKind) domain.PaymentDetails {
	return p.payment(kind, defaultPremium, nil)
}

func (p *Provider) payment(kind domain.InsuranceKind, amount int64, features []string) domain.PaymentDetails {
	now := p.opts.Now()
	ms := now.UnixMilli()
	return domain.PaymentDetails{
		Amount:        pricing.FormatRupees(amount),
		AmountValue:   amount,
		Term:          "1 Year",
		DueDate:       now.Add(30 * 24 * time.Hour).Format(displayDateLayout),
		PolicyType:    kind.Label(),
		PaymentID:     fmt.Sprintf("PAY%d", ms),
		TransactionID: fmt.Sprintf("TXN%d", ms),
		MerchantID:    merchantID,
		RedirectURL:   paymentRedirectURL,
		Features:      append([]string{}, features...),
	}
}

// IssuePolicy issues the simulated policy for a paid offer.
func (p *Provider) IssuePolicy(_ context.Context, pending domain.PendingPayment, conf domain.PaymentConfirmation) (domain.PolicyDocument, error) {
	now := p.opts.Now()
	number := p.opts.referenceID("TAIG")
	premium := pending.Payment.Amount
	if premium == "" {
		premium = pending.Offer.Premium
	}
	coverage := pending.Offer.Coverage
	if coverage == "" {
		coverage = "Comprehensive Coverage"
	}
	txn := conf.TransactionID
	if txn == "" {
		txn = pending.Payment.TransactionID
	}
	return domain.PolicyDocument{
		PolicyNumber:   number,
		IssueDate:      now.Format(displayDateLayout),
		ExpiryDate:     now.Add(365 * 24 * time.Hour).Format(displayDateLayout),
		PolicyType:     pending.Kind.Label(),
		Premium:        premium,
		Coverage:       coverage,
		Features:       append([]string{}, pending.Offer.Features...),
		TransactionID:  txn,
		DocumentURL:    fmt.Sprintf("%s/policy/%s.pdf", documentBaseURL, number),
		CertificateURL: fmt.Sprintf("%s/certificate/%s.pdf", documentBaseURL, number),
	}, nil
}

func negotiationPrompt(kind domain.InsuranceKind, req NegotiationRequest, profile domain.UserProfile, quote *pricing.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Negotiate %s for %s.\n\n", kind.Label(), profile.Name)
	if raw, err := json.MarshalIndent(profile, "", "  "); err == nil {
		fmt.Fprintf(&b, "PROFILE:\n%s\n\n", raw)
	}
	fmt.Fprintf(&b, "User requirements: %s\n", req.Requirements)
	if req.RequesterMessage != "" {
		fmt.Fprintf(&b, "Personal bot request: %s\n", req.RequesterMessage)
	}
	if quote != nil {
		fmt.Fprintf(&b, "\nCurrent TATA AIG rates:\nPolicy: %s\nPlan: %s\nMarket premium: %s/year\nCoverage: %s\nDiscounts: %s\nFeatures: %s\nNCB: %s\nSpecial offers: %s\n",
			quote.PolicyName, quote.PlanName, pricing.FormatRupees(quote.Premium), quote.Coverage,
			quote.Discount, strings.Join(quote.Features, ", "), quote.NCB, quote.SpecialOffer)
	}
	b.WriteString("\nReturn four short negotiation steps, the final offer and your reasoning.")
	return b.String()
}

func parseProposal(content string) (domain.Proposal, error) {
	var raw struct {
		Steps []string `json:"negotiationSteps"`
		Offer *struct {
			Premium  string   `json:"premium"`
			Coverage string   `json:"coverage"`
			Discount string   `json:"discount"`
			Features []string `json:"features"`
		} `json:"finalOffer"`
		Reasoning string `json:"reasoning"`
	}
	if err := decodeStrict(content, &raw); err != nil {
		return domain.Proposal{}, err
	}
	if raw.Offer == nil || strings.TrimSpace(raw.Offer.Premium) == "" {
		return domain.Proposal{}, fmt.Errorf("%w: missing final offer", ErrMalformedOutput)
	}
	if domain.ParseAmount(raw.Offer.Premium) <= 0 {
		return domain.Proposal{}, fmt.Errorf("%w: unparseable premium %q", ErrMalformedOutput, raw.Offer.Premium)
	}
	return domain.Proposal{
		Steps: raw.Steps,
		Offer: domain.Offer{
			Premium:  raw.Offer.Premium,
			Coverage: raw.Offer.Coverage,
			Discount: raw.Offer.Discount,
			Features: raw.Offer.Features,
		},
		Reasoning: raw.Reasoning,
	}, nil
}
