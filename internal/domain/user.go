// Package domain contains core domain types for the insurance assistant.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PolicyDateLayout is the layout used for policy validity dates.
const PolicyDateLayout = "2006-01-02"

// UserProfile is the structured profile of the single user the assistant serves.
// A published profile is treated as immutable; updates replace it wholesale.
type UserProfile struct {
	Name       string    `json:"name" yaml:"name"`
	Age        int       `json:"age" yaml:"age"`
	Location   string    `json:"location" yaml:"location"`
	Occupation string    `json:"occupation" yaml:"occupation"`
	Income     string    `json:"income,omitempty" yaml:"income,omitempty"`
	Cars       []Vehicle `json:"cars" yaml:"cars"`
	Family     Family    `json:"family" yaml:"family"`
	Health     Health    `json:"health" yaml:"health"`
	Insurance  Portfolio `json:"insurance" yaml:"insurance"`
	Lifestyle  Lifestyle `json:"lifestyle" yaml:"lifestyle"`
}

// Vehicle is a car owned by the user together with its motor policy.
type Vehicle struct {
	Make             string  `json:"make" yaml:"make"`
	Model            string  `json:"model" yaml:"model"`
	Year             int     `json:"year" yaml:"year"`
	Variant          string  `json:"variant,omitempty" yaml:"variant,omitempty"`
	Registration     string  `json:"registration,omitempty" yaml:"registration,omitempty"`
	IsPrimary        bool    `json:"isPrimary,omitempty" yaml:"isPrimary,omitempty"`
	InsuranceDetails *Policy `json:"insuranceDetails,omitempty" yaml:"insuranceDetails,omitempty"`
}

// Label returns "Make Model Year".
func (v Vehicle) Label() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %d", v.Make, v.Model, v.Year))
}

// Policy is an insurance policy held by the user.
type Policy struct {
	Provider     string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	PolicyNumber string   `json:"policyNumber,omitempty" yaml:"policyNumber,omitempty"`
	PolicyType   string   `json:"policyType" yaml:"policyType"`
	Coverage     string   `json:"coverage" yaml:"coverage"`
	Premium      string   `json:"premium,omitempty" yaml:"premium,omitempty"`
	ValidFrom    string   `json:"validFrom,omitempty" yaml:"validFrom,omitempty"`
	ValidTill    string   `json:"validTill" yaml:"validTill"`
	Features     []string `json:"features,omitempty" yaml:"features,omitempty"`
}

// CoverageLimit returns the policy coverage as a rupee amount.
func (p *Policy) CoverageLimit() int64 {
	if p == nil {
		return 0
	}
	return ParseAmount(p.Coverage)
}

// Expired reports whether the policy validity ended before now.
// A missing or unparseable end date is treated as still valid.
func (p *Policy) Expired(now time.Time) bool {
	if p == nil || p.ValidTill == "" {
		return false
	}
	end, err := time.Parse(PolicyDateLayout, p.ValidTill)
	if err != nil {
		return false
	}
	// Valid through the end of the final day.
	return now.After(end.Add(24 * time.Hour))
}

// HasFeature reports whether the policy lists the feature (case-insensitive).
func (p *Policy) HasFeature(feature string) bool {
	if p == nil {
		return false
	}
	for _, f := range p.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

// Family describes the user's dependents.
type Family struct {
	Spouse          *Person `json:"spouse,omitempty" yaml:"spouse,omitempty"`
	Children        int     `json:"children" yaml:"children"`
	TotalDependents int     `json:"totalDependents" yaml:"totalDependents"`
}

// Person is a named family member.
type Person struct {
	Name string `json:"name" yaml:"name"`
	Age  int    `json:"age" yaml:"age"`
}

// Health is the user's health record.
type Health struct {
	Smoker                bool     `json:"smoker" yaml:"smoker"`
	GymMember             bool     `json:"gymMember" yaml:"gymMember"`
	PreExistingConditions string   `json:"preExistingConditions,omitempty" yaml:"preExistingConditions,omitempty"`
	Conditions            []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	LastCheckup           string   `json:"lastCheckup,omitempty" yaml:"lastCheckup,omitempty"`
	FamilyMedicalHistory  string   `json:"familyMedicalHistory,omitempty" yaml:"familyMedicalHistory,omitempty"`
	Cholesterol           string   `json:"cholesterol,omitempty" yaml:"cholesterol,omitempty"`
	PreferredHospitals    []string `json:"preferredHospitals,omitempty" yaml:"preferredHospitals,omitempty"`
}

// Portfolio groups the user's insurance preferences and named policies.
type Portfolio struct {
	BudgetRange       BudgetRange `json:"budgetRange" yaml:"budgetRange"`
	PreferredCoverage string      `json:"preferredCoverage,omitempty" yaml:"preferredCoverage,omitempty"`
	CurrentPolicies   []string    `json:"currentPolicies,omitempty" yaml:"currentPolicies,omitempty"`
	HealthInsurance   *Policy     `json:"healthInsurance,omitempty" yaml:"healthInsurance,omitempty"`
	LifeInsurance     *Policy     `json:"lifeInsurance,omitempty" yaml:"lifeInsurance,omitempty"`
}

// BudgetRange is the yearly premium budget in rupees.
type BudgetRange struct {
	Min int64 `json:"min" yaml:"min"`
	Max int64 `json:"max" yaml:"max"`
}

// Lifestyle holds driving and stress indicators.
type Lifestyle struct {
	DrivingExperience string `json:"drivingExperience,omitempty" yaml:"drivingExperience,omitempty"`
	AccidentHistory   string `json:"accidentHistory,omitempty" yaml:"accidentHistory,omitempty"`
	StressLevel       string `json:"stressLevel,omitempty" yaml:"stressLevel,omitempty"`
}

// Validate checks the fields every agent relies on.
func (p *UserProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name cannot be empty")
	}
	if p.Age < 0 || p.Age > 130 {
		return fmt.Errorf("profile age out of range: %d", p.Age)
	}
	if p.Insurance.BudgetRange.Max < p.Insurance.BudgetRange.Min {
		return errors.New("budget range max is below min")
	}
	return nil
}

// PrimaryVehicle returns the car marked primary, else the first car.
func (p *UserProfile) PrimaryVehicle() (Vehicle, bool) {
	for _, car := range p.Cars {
		if car.IsPrimary {
			return car, true
		}
	}
	if len(p.Cars) > 0 {
		return p.Cars[0], true
	}
	return Vehicle{}, false
}

// BudgetLabel renders the budget as "₹15k-25k/year".
func (p *UserProfile) BudgetLabel() string {
	b := p.Insurance.BudgetRange
	if b.Max == 0 {
		return "₹15-25k/year"
	}
	return fmt.Sprintf("₹%dk-%dk/year", b.Min/1000, b.Max/1000)
}

// FamilySize counts the user plus dependents.
func (p *UserProfile) FamilySize() int {
	if p.Family.TotalDependents <= 0 {
		return 2
	}
	return p.Family.TotalDependents + 1
}
