package profile

import "github.com/ashureev/insurance-a2a/internal/domain"

// Default is the profile published when no stored profile can be loaded.
func Default() domain.UserProfile {
	return domain.UserProfile{
		Name:       "User",
		Age:        30,
		Location:   "Mumbai",
		Occupation: "Professional",
		Cars: []domain.Vehicle{{
			Make:      "Honda",
			Model:     "City",
			Year:      2020,
			IsPrimary: true,
			InsuranceDetails: &domain.Policy{
				Provider:   "TATA AIG",
				PolicyType: "Comprehensive",
				Coverage:   "₹7,00,000",
				ValidTill:  "2099-12-31",
			},
		}},
		Family: domain.Family{
			Spouse:          &domain.Person{Name: "Partner", Age: 28},
			Children:        1,
			TotalDependents: 2,
		},
		Health: domain.Health{GymMember: true},
		Insurance: domain.Portfolio{
			BudgetRange:       domain.BudgetRange{Min: 15000, Max: 25000},
			PreferredCoverage: "Comprehensive",
		},
		Lifestyle: domain.Lifestyle{DrivingExperience: "10 years", AccidentHistory: "None"},
	}
}
