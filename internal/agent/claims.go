package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/pricing"
)

// ClaimSteps are reported while a claim is processed.
var ClaimSteps = []string{
	"Receiving claim request...",
	"Verifying policy details and coverage...",
	"Checking eligibility and waiting periods...",
	"Validating submitted documents...",
	"Processing claim assessment...",
	"Finalizing claim approval...",
}

var claimContact = domain.ClaimContact{
	Phone:       "1800-266-7780",
	Email:       "claims@tataaig.com",
	ChatSupport: "24/7 available",
}

// ClaimRequest is the claim text the requester forwards.
type ClaimRequest struct {
	Description string
	Message     string
}

func (r ClaimRequest) text() string {
	return strings.TrimSpace(r.Description + " " + r.Message)
}

// Claims is the claims processing agent.
type Claims struct {
	classifier ClaimClassifier
	profiles   ProfileSource
	opts       Options
}

// NewClaims creates a claims agent. A nil classifier uses keyword rules only.
func NewClaims(classifier ClaimClassifier, profiles ProfileSource, opts Options) *Claims {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Claims{classifier: classifier, profiles: profiles, opts: opts.withDefaults("claims")}
}

// ProcessClaim classifies and assesses a claim against the user's policies.
func (c *Claims) ProcessClaim(ctx context.Context, req ClaimRequest) (domain.ClaimResult, error) {
	text := req.text()
	kind := c.classifier.Classify(ctx, text)
	if err := ctx.Err(); err != nil {
		return domain.ClaimResult{}, err
	}
	profile := c.profiles.Current()
	policy := relevantPolicy(kind, text, profile)
	assessment := c.assess(kind, text, policy, profile)

	status := domain.ClaimUnderReview
	if assessment.Approved {
		status = domain.ClaimApproved
	}
	result := domain.ClaimResult{
		ClaimID:             c.opts.referenceID("CLM"),
		ClaimType:           kind,
		Status:              status,
		ProcessingSteps:     append([]string(nil), ClaimSteps...),
		Assessment:          assessment,
		NextSteps:           assessment.NextSteps,
		EstimatedSettlement: settlementTimeline(assessment),
		Contact:             claimContact,
	}
	c.opts.Logger.Info("Claim assessed", "claim_id", result.ClaimID, "claim_type", kind, "status", status)
	return result, nil
}

// FallbackClaim is the result reported when claim processing fails.
func (c *Claims) FallbackClaim() domain.ClaimResult {
	return domain.ClaimResult{
		ClaimID:         fmt.Sprintf("CLM%d", c.opts.Now().UnixMilli()),
		ClaimType:       domain.ClaimUnknown,
		Status:          domain.ClaimError,
		ProcessingSteps: []string{"Error processing claim..."},
		Assessment: domain.ClaimAssessment{
			Reason:    "Technical error occurred",
			NextSteps: []string{"Please contact customer support"},
		},
		NextSteps:           []string{"Please contact customer support"},
		EstimatedSettlement: "Pending approval",
		Contact:             claimContact,
	}
}

func relevantPolicy(kind domain.ClaimKind, text string, p domain.UserProfile) *domain.Policy {
	switch kind {
	case domain.ClaimHealth:
		return p.Insurance.HealthInsurance
	case domain.ClaimLife:
		return p.Insurance.LifeInsurance
	case domain.ClaimMotor:
		lower := strings.ToLower(text)
		for _, car := range p.Cars {
			if car.Registration != "" && strings.Contains(lower, strings.ToLower(car.Registration)) {
				return car.InsuranceDetails
			}
		}
		for _, car := range p.Cars {
			if car.Model != "" && strings.Contains(lower, strings.ToLower(car.Model)) {
				return car.InsuranceDetails
			}
		}
		if len(p.Cars) > 0 {
			return p.Cars[0].InsuranceDetails
		}
	}
	return nil
}

func (c *Claims) assess(kind domain.ClaimKind, text string, policy *domain.Policy, p domain.UserProfile) domain.ClaimAssessment {
	if policy == nil {
		return domain.ClaimAssessment{
			Reason:    "No valid policy found for this claim type",
			NextSteps: []string{"Please verify your policy details"},
		}
	}
	now := c.opts.Now()
	if kind == domain.ClaimHealth {
		return assessHealth(text, policy, p, policy.Expired(now))
	}
	if policy.Expired(now) {
		return domain.ClaimAssessment{
			Reason:    "Policy has expired",
			NextSteps: []string{"Please renew your policy to proceed with claims"},
		}
	}
	switch kind {
	case domain.ClaimMotor:
		return assessMotor(text, policy)
	case domain.ClaimLife:
		return assessLife()
	}
	return domain.ClaimAssessment{Reason: "Claim type could not be determined", NextSteps: []string{"Please describe the claim in more detail"}}
}

func assessHealth(text string, policy *domain.Policy, p domain.UserProfile, expired bool) domain.ClaimAssessment {
	a := domain.ClaimAssessment{Reason: "Health claim under process"}
	if expired {
		a.NextSteps = []string{
			"Please renew your health insurance policy to proceed with claims",
			"We will keep you posted on renewal options",
		}
		return a
	}
	amount := ExtractAmount(text)
	limit := policy.CoverageLimit()
	if amount > limit {
		a.Reason = fmt.Sprintf("Health claim under process - Claim amount (%s) exceeds policy coverage (%s)", pricing.FormatRupees(amount), policy.Coverage)
		a.NextSteps = []string{"Consider partial settlement up to policy limit", "We will keep you posted on the claim status"}
		return a
	}

	a.Approved = true
	a.Amount = amount
	a.RequiredDocuments = []string{
		"Hospital discharge summary",
		"Medical bills and receipts",
		"Diagnostic reports",
		"Doctor's prescription",
		"Insurance card copy",
	}
	if networkHospital(text, p.Health.PreferredHospitals) {
		a.NextSteps = []string{
			"Cashless claim approved",
			"Hospital will receive direct payment",
			"Claim will be settled within 3-5 working days",
			"We will keep you posted on the settlement progress",
		}
	} else {
		a.NextSteps = []string{
			"Reimbursement claim approved",
			"Submit original bills for processing",
			"Amount will be credited within 7-10 working days",
			"We will keep you posted on the claim status and settlement",
		}
	}
	return a
}

func assessMotor(text string, policy *domain.Policy) domain.ClaimAssessment {
	if strings.Contains(strings.ToLower(policy.PolicyType), "third party") && !thirdParty.MatchString(text) {
		return domain.ClaimAssessment{
			Reason:    "Own damage not covered under Third Party policy",
			NextSteps: []string{"Consider upgrading to Comprehensive coverage"},
		}
	}
	return domain.ClaimAssessment{
		Approved: true,
		Amount:   min(ExtractAmount(text), policy.CoverageLimit()),
		Reason:   "Motor claim approved based on policy terms",
		RequiredDocuments: []string{
			"FIR copy (if applicable)",
			"Driving license copy",
			"RC copy",
			"Repair estimates",
			"Photos of damage",
			"Insurance policy copy",
		},
		NextSteps: []string{
			"Visit authorized garage for repair",
			"Claim will be settled directly with garage",
			"Estimated settlement time: 5-7 working days",
		},
	}
}

func assessLife() domain.ClaimAssessment {
	return domain.ClaimAssessment{
		Reason: "Life insurance claims require detailed verification",
		RequiredDocuments: []string{
			"Death certificate (original)",
			"Medical reports",
			"Police report (if applicable)",
			"Nominee identification proof",
			"Policy bond original",
			"Claim form duly filled",
		},
		NextSteps: []string{
			"Submit all required documents",
			"Claim will be reviewed by underwriting team",
			"Verification process may take 15-30 days",
			"Our team will contact you for any additional requirements",
		},
	}
}

func networkHospital(text string, hospitals []string) bool {
	lower := strings.ToLower(text)
	for _, h := range hospitals {
		if h != "" && strings.Contains(lower, strings.ToLower(h)) {
			return true
		}
	}
	return false
}

func settlementTimeline(a domain.ClaimAssessment) string {
	if !a.Approved {
		return "Pending approval"
	}
	for _, step := range a.NextSteps {
		if strings.Contains(step, "days") {
			return step
		}
	}
	return "7-10 working days"
}
