package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, staticProfiles{testProfile()}, testOptions())
	cases := []struct {
		name   string
		mutate func(*domain.UserProfile)
		want   string
	}{
		{"young", func(*domain.UserProfile) {}, "basic"},
		{"forty", func(p *domain.UserProfile) { p.Age = 42 }, "comprehensive"},
		{"fifty", func(p *domain.UserProfile) { p.Age = 55 }, "executive"},
		{"diabetes history", func(p *domain.UserProfile) { p.Health.FamilyMedicalHistory = "Father has Diabetes" }, "diabetes"},
		{"cholesterol", func(p *domain.UserProfile) { p.Health.Cholesterol = "High" }, "cardiac"},
		{"smoker overrides", func(p *domain.UserProfile) { p.Age = 55; p.Health.Smoker = true }, "comprehensive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := testProfile()
			tc.mutate(&p)
			rec, err := s.Recommend(p)
			require.NoError(t, err)
			assert.Equal(t, tc.want, rec.PackageType)
			assert.Equal(t, rec.Package.Price, rec.TotalCost)
		})
	}
}

func TestCheckupPricing(t *testing.T) {
	t.Parallel()

	price := checkupPrice(2499, true)
	assert.Equal(t, int64(625), price.Discount)
	assert.Equal(t, int64(1874), price.FinalPrice)
	assert.Len(t, price.DiscountReasons, 2)

	price = checkupPrice(999, false)
	assert.Equal(t, int64(150), price.Discount)

	cov := checkupCoverage(&domain.Policy{Features: []string{"annual health checkup"}}, 6000)
	assert.True(t, cov.Covered)
	assert.Equal(t, int64(5000), cov.CoverageAmount)
	assert.False(t, checkupCoverage(nil, 999).Covered)
}

func TestSlotsAreStableAndFiltered(t *testing.T) {
	t.Parallel()

	all := Slots(fixedNow, CheckupPreferences{})
	assert.LessOrEqual(t, len(all), 10)
	assert.NotEmpty(t, all)
	assert.Equal(t, all, Slots(fixedNow, CheckupPreferences{}))
	for _, s := range all {
		assert.True(t, s.Available)
		assert.Greater(t, s.Date, fixedNow.Format(domain.PolicyDateLayout))
	}

	for _, s := range Slots(fixedNow, CheckupPreferences{Period: "evening"}) {
		assert.Equal(t, "evening", s.Period)
	}
	for _, s := range Slots(fixedNow, CheckupPreferences{Days: []string{"Saturday"}}) {
		assert.Equal(t, "Saturday", s.Day)
	}
}

func TestParsePreferences(t *testing.T) {
	t.Parallel()

	p := ParsePreferences("Morning slot on Monday or Friday please")
	assert.Equal(t, "morning", p.Period)
	assert.Equal(t, []string{"Monday", "Friday"}, p.Days)
}

func TestScheduleCheckup(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, staticProfiles{testProfile()}, testOptions())
	res, err := s.ScheduleCheckup(context.Background(), "book a health checkup")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("HC%d042", fixedNow.UnixMilli()), res.BookingID)
	require.NotNil(t, res.Recommendation)
	assert.True(t, res.Recommendation.InsuranceCoverage.Covered)
	assert.Equal(t, CheckupSteps, res.ProcessingSteps)
	require.NotEmpty(t, res.Locations)
	for i := 1; i < len(res.Locations); i++ {
		assert.LessOrEqual(t, res.Locations[i-1].DistanceKM, res.Locations[i].DistanceKM)
	}

	_, err = s.ScheduleCheckup(canceledContext(), "x")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, "Technical error occurred", s.FallbackCheckup().Error)
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
