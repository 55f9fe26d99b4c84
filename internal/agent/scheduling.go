package agent

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/pricing"
)

// CheckupSteps are reported while a checkup is being arranged.
var CheckupSteps = []string{
	"Analyzing health profile and requirements...",
	"Checking available health packages...",
	"Coordinating with diagnostic centers...",
	"Checking available time slots...",
	"Confirming appointment details...",
	"Generating booking confirmation...",
}

const (
	slotDays         = 14
	maxOfferedSlots  = 10
	checkupCoverCap  = 5000
	annualCheckupTag = "Annual health checkup"
)

type slotTemplate struct {
	time      string
	period    string
	threshold uint32
}

var slotTemplates = []slotTemplate{
	{"7:00 AM", "morning", 30},
	{"9:00 AM", "morning", 40},
	{"2:00 PM", "afternoon", 50},
	{"4:00 PM", "afternoon", 60},
	{"6:00 PM", "evening", 40},
}

var weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// CheckupPreferences narrow the offered slots.
type CheckupPreferences struct {
	Period string
	Days   []string
}

// ParsePreferences reads a time-of-day and weekdays from free text.
func ParsePreferences(text string) CheckupPreferences {
	lower := strings.ToLower(text)
	var prefs CheckupPreferences
	for _, period := range []string{"morning", "afternoon", "evening"} {
		if strings.Contains(lower, period) {
			prefs.Period = period
			break
		}
	}
	for _, d := range weekdays {
		if strings.Contains(lower, d) {
			prefs.Days = append(prefs.Days, strings.ToUpper(d[:1])+d[1:])
		}
	}
	return prefs
}

// Scheduler is the health checkup booking agent.
type Scheduler struct {
	catalog  *pricing.Catalog
	profiles ProfileSource
	opts     Options
}

// NewScheduler creates a scheduling agent.
func NewScheduler(catalog *pricing.Catalog, profiles ProfileSource, opts Options) *Scheduler {
	if catalog == nil {
		catalog = pricing.Baseline()
	}
	return &Scheduler{catalog: catalog, profiles: profiles, opts: opts.withDefaults("scheduler")}
}

// ScheduleCheckup recommends a package and lists slots and centers.
func (s *Scheduler) ScheduleCheckup(ctx context.Context, text string) (domain.CheckupResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.CheckupResult{}, err
	}
	profile := s.profiles.Current()
	rec, err := s.Recommend(profile)
	if err != nil {
		return domain.CheckupResult{}, err
	}
	result := domain.CheckupResult{
		BookingID:       s.opts.referenceID("HC"),
		ProcessingSteps: append([]string(nil), CheckupSteps...),
		Recommendation:  &rec,
		AvailableSlots:  Slots(s.opts.Now(), ParsePreferences(text)),
		Locations:       s.Locations(),
		NextSteps: []string{
			"Select preferred health package",
			"Choose convenient date and time",
			"Confirm booking and make payment",
			"Receive appointment confirmation",
		},
	}
	s.opts.Logger.Info("Checkup arranged", "booking_id", result.BookingID, "package", rec.PackageType, "slots", len(result.AvailableSlots))
	return result, nil
}

// FallbackCheckup is the result reported when scheduling fails.
func (s *Scheduler) FallbackCheckup() domain.CheckupResult {
	return domain.CheckupResult{
		BookingID:       fmt.Sprintf("HC%d", s.opts.Now().UnixMilli()),
		ProcessingSteps: []string{"Error processing health checkup request..."},
		Error:           "Technical error occurred",
	}
}

// Recommend picks a package from age, history and lifestyle.
func (s *Scheduler) Recommend(p domain.UserProfile) (domain.PackageRecommendation, error) {
	key := "basic"
	var reasons []string
	history := strings.ToLower(p.Health.FamilyMedicalHistory)

	if p.Age >= 40 {
		key = "comprehensive"
		reasons = append(reasons, "Comprehensive screening recommended for age 40+")
	}
	if p.Age >= 50 {
		key = "executive"
		reasons = append(reasons, "Executive package recommended for age 50+ with advanced screenings")
	}
	if strings.Contains(history, "diabetes") {
		if key == "basic" {
			key = "diabetes"
		}
		reasons = append(reasons, "Diabetes screening recommended due to family history")
	}
	if strings.Contains(history, "heart") || strings.EqualFold(p.Health.Cholesterol, "high") {
		if key == "basic" {
			key = "cardiac"
		}
		reasons = append(reasons, "Cardiac screening recommended due to family history")
	}
	if p.Health.Smoker || strings.EqualFold(p.Lifestyle.StressLevel, "high") {
		key = "comprehensive"
		reasons = append(reasons, "Comprehensive screening recommended due to lifestyle factors")
	}

	pkg, ok := s.catalog.Package(key)
	if !ok {
		return domain.PackageRecommendation{}, fmt.Errorf("health package %q not in catalog", key)
	}
	return domain.PackageRecommendation{
		PackageType:       key,
		Package:           pkg,
		Reasons:           reasons,
		InsuranceCoverage: checkupCoverage(p.Insurance.HealthInsurance, pkg.Price),
		TotalCost:         pkg.Price,
		DiscountedCost:    checkupPrice(pkg.Price, p.Insurance.HealthInsurance != nil),
	}, nil
}

func checkupCoverage(policy *domain.Policy, price int64) domain.CheckupCoverage {
	if policy.HasFeature(annualCheckupTag) {
		return domain.CheckupCoverage{
			Covered:        true,
			CoverageAmount: min(price, checkupCoverCap),
			Message:        "Health checkup covered under your insurance policy",
		}
	}
	return domain.CheckupCoverage{Message: "Health checkup not covered, full payment required"}
}

func checkupPrice(price int64, insured bool) domain.CheckupPrice {
	pct := int64(15)
	reasons := []string{"15% first-time user discount"}
	if insured {
		pct += 10
		reasons = append(reasons, "10% insurance holder discount")
	}
	discount := (price*pct + 50) / 100
	return domain.CheckupPrice{
		OriginalPrice:   price,
		Discount:        discount,
		FinalPrice:      price - discount,
		DiscountReasons: reasons,
	}
}

// Slots lists available slots over the next two weeks. Availability is a
// stable function of date and time so repeated requests agree.
func Slots(from time.Time, prefs CheckupPreferences) []domain.Slot {
	var out []domain.Slot
	for i := 1; i <= slotDays && len(out) < maxOfferedSlots; i++ {
		day := from.AddDate(0, 0, i)
		date := day.Format(domain.PolicyDateLayout)
		name := day.Weekday().String()
		if len(prefs.Days) > 0 && !containsFold(prefs.Days, name) {
			continue
		}
		for _, t := range slotTemplates {
			if prefs.Period != "" && t.period != prefs.Period {
				continue
			}
			if slotRoll(date, t.time) < t.threshold {
				continue
			}
			out = append(out, domain.Slot{Date: date, Day: name, Time: t.time, Period: t.period, Available: true})
			if len(out) == maxOfferedSlots {
				break
			}
		}
	}
	return out
}

func slotRoll(date, clock string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(date + " " + clock))
	return h.Sum32() % 100
}

// Locations returns the diagnostic centers nearest first.
func (s *Scheduler) Locations() []domain.DiagnosticCenter {
	out := append([]domain.DiagnosticCenter(nil), s.catalog.Locations...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKM < out[j].DistanceKM })
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
