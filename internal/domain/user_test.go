package domain

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"₹15,000/year", 15000},
		{"₹8,00,000 (IDV) + ₹15,00,000 (Third Party)", 800000},
		{"Rs. 50000", 50000},
		{"no digits", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseAmount(tt.in); got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPolicyExpired(t *testing.T) {
	p := &Policy{ValidTill: "2025-03-15"}
	if p.Expired(time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC)) {
		t.Error("policy should be valid through its final day")
	}
	if !p.Expired(time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)) {
		t.Error("policy should be expired two days later")
	}

	var missing *Policy
	if missing.Expired(time.Now()) {
		t.Error("nil policy should not report expired")
	}
}

func TestProfileHelpers(t *testing.T) {
	p := UserProfile{
		Name: "Asha",
		Cars: []Vehicle{
			{Make: "Maruti", Model: "Swift", Year: 2019},
			{Make: "Honda", Model: "City", Year: 2021, IsPrimary: true},
		},
		Family:    Family{TotalDependents: 3},
		Insurance: Portfolio{BudgetRange: BudgetRange{Min: 15000, Max: 25000}},
	}

	car, ok := p.PrimaryVehicle()
	if !ok || car.Model != "City" {
		t.Errorf("PrimaryVehicle() = %+v, want the primary Honda City", car)
	}
	if got := p.BudgetLabel(); got != "₹15k-25k/year" {
		t.Errorf("BudgetLabel() = %q", got)
	}
	if got := p.FamilySize(); got != 4 {
		t.Errorf("FamilySize() = %d, want 4", got)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	p.Name = " "
	if err := p.Validate(); err == nil {
		t.Error("Validate() should reject an empty name")
	}
}
