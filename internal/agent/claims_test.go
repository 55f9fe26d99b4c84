package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processClaim(t *testing.T, p domain.UserProfile, text string) domain.ClaimResult {
	t.Helper()
	c := NewClaims(nil, staticProfiles{p}, testOptions())
	res, err := c.ProcessClaim(context.Background(), ClaimRequest{Description: text})
	require.NoError(t, err)
	return res
}

func TestHealthClaimAtNetworkHospitalIsCashless(t *testing.T) {
	t.Parallel()

	res := processClaim(t, testProfile(), "I was hospitalized at Lilavati Hospital, bill of ₹50,000")
	assert.Equal(t, domain.ClaimHealth, res.ClaimType)
	assert.Equal(t, domain.ClaimApproved, res.Status)
	assert.Equal(t, int64(50000), res.Assessment.Amount)
	assert.Equal(t, "Cashless claim approved", res.NextSteps[0])
	assert.Equal(t, "Claim will be settled within 3-5 working days", res.EstimatedSettlement)
	assert.Equal(t, fmt.Sprintf("CLM%d042", fixedNow.UnixMilli()), res.ClaimID)
	assert.Equal(t, ClaimSteps, res.ProcessingSteps)
	assert.Equal(t, "1800-266-7780", res.Contact.Phone)
}

func TestHealthClaimOutsideNetworkIsReimbursement(t *testing.T) {
	t.Parallel()

	res := processClaim(t, testProfile(), "hospital stay at City Clinic, ₹20,000")
	assert.Equal(t, domain.ClaimApproved, res.Status)
	assert.Equal(t, "Reimbursement claim approved", res.NextSteps[0])
	assert.Len(t, res.Assessment.RequiredDocuments, 5)
}

func TestHealthClaimOverCoverage(t *testing.T) {
	t.Parallel()

	res := processClaim(t, testProfile(), "hospital bill of 8 lakh")
	assert.Equal(t, domain.ClaimUnderReview, res.Status)
	assert.Contains(t, res.Assessment.Reason, "exceeds policy coverage (₹5,00,000)")
	assert.Equal(t, "Pending approval", res.EstimatedSettlement)
}

func TestExpiredHealthPolicy(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.Insurance.HealthInsurance.ValidTill = "2024-01-01"
	res := processClaim(t, p, "medical claim for ₹10,000")
	assert.Equal(t, domain.ClaimUnderReview, res.Status)
	assert.Contains(t, res.NextSteps[0], "renew")
}

func TestMotorClaims(t *testing.T) {
	t.Parallel()

	res := processClaim(t, testProfile(), "my City MH02AB1234 had an accident, repair estimate ₹40,000")
	assert.Equal(t, domain.ClaimMotor, res.ClaimType)
	assert.Equal(t, domain.ClaimApproved, res.Status)
	assert.Equal(t, int64(40000), res.Assessment.Amount)
	assert.Equal(t, "Estimated settlement time: 5-7 working days", res.EstimatedSettlement)

	p := testProfile()
	p.Cars[0].InsuranceDetails.PolicyType = "Third Party"
	res = processClaim(t, p, "car dented in an accident, ₹40,000")
	assert.Equal(t, domain.ClaimUnderReview, res.Status)
	assert.Equal(t, "Own damage not covered under Third Party policy", res.Assessment.Reason)

	p = testProfile()
	p.Cars[0].InsuranceDetails.ValidTill = "2020-01-01"
	res = processClaim(t, p, "car accident, ₹40,000")
	assert.Equal(t, "Policy has expired", res.Assessment.Reason)

	p = testProfile()
	p.Cars[0].InsuranceDetails.Coverage = "₹30,000"
	res = processClaim(t, p, "car accident, ₹40,000")
	assert.Equal(t, int64(30000), res.Assessment.Amount)
}

func TestLifeClaimNeedsReview(t *testing.T) {
	t.Parallel()

	res := processClaim(t, testProfile(), "life claim for my father")
	assert.Equal(t, domain.ClaimLife, res.ClaimType)
	assert.Equal(t, domain.ClaimUnderReview, res.Status)
	assert.Len(t, res.Assessment.RequiredDocuments, 6)
}

func TestClaimWithoutPolicy(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.Insurance.LifeInsurance = nil
	res := processClaim(t, p, "life claim")
	assert.Equal(t, "No valid policy found for this claim type", res.Assessment.Reason)

	res = processClaim(t, testProfile(), "please process my claim")
	assert.Equal(t, domain.ClaimUnknown, res.ClaimType)
	assert.Equal(t, "No valid policy found for this claim type", res.Assessment.Reason)
}

func TestFallbackClaim(t *testing.T) {
	t.Parallel()

	c := NewClaims(nil, staticProfiles{testProfile()}, testOptions())
	res := c.FallbackClaim()
	assert.Equal(t, domain.ClaimError, res.Status)
	assert.Equal(t, fmt.Sprintf("CLM%d", fixedNow.UnixMilli()), res.ClaimID)
}
