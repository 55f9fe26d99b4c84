// Package pricing prices insurance quotes from baseline catalog data.
package pricing

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/ashureev/insurance-a2a/internal/domain"
)

//go:embed baseline.toml
var baselineTOML string

// Catalog is the static product data behind quotes and fallbacks.
type Catalog struct {
	Motor     MotorTable                `toml:"motor"`
	Cars      []CarValue                `toml:"cars"`
	Offers    []BaseOffer               `toml:"offers"`
	Packages  []domain.HealthPackage    `toml:"packages"`
	Locations []domain.DiagnosticCenter `toml:"locations"`
}

// MotorTable holds motor premium parameters.
type MotorTable struct {
	PolicyName            string       `toml:"policy_name"`
	DefaultBase           float64      `toml:"default_base"`
	DefaultDepreciation   float64      `toml:"default_depreciation"`
	ThirdPartyBase        float64      `toml:"third_party_base"`
	ThirdPartyRate        float64      `toml:"third_party_rate"`
	FixedCharges          float64      `toml:"fixed_charges"`
	ThirdPartyCover       string       `toml:"third_party_cover"`
	NCB                   string       `toml:"ncb"`
	BaseFeatures          []string     `toml:"base_features"`
	ComprehensiveFeatures []string     `toml:"comprehensive_features"`
	SpecialOffers         []string     `toml:"special_offers"`
	Rates                 []AgeRate    `toml:"rates"`
	Fallback              MotorDefault `toml:"fallback"`
}

// AgeRate is the comprehensive rate for cars up to MaxAge years old.
type AgeRate struct {
	MaxAge   int     `toml:"max_age"`
	Rate     float64 `toml:"rate"`
	Discount string  `toml:"discount"`
}

// MotorDefault is the quote served when pricing fails.
type MotorDefault struct {
	PolicyName   string   `toml:"policy_name"`
	PlanName     string   `toml:"plan_name"`
	Premium      int64    `toml:"premium"`
	Coverage     string   `toml:"coverage"`
	Discount     string   `toml:"discount"`
	Features     []string `toml:"features"`
	NCB          string   `toml:"ncb"`
	SpecialOffer string   `toml:"special_offer"`
}

// CarValue is the new-car value and yearly depreciation of a model.
type CarValue struct {
	Model        string   `toml:"model"`
	Aliases      []string `toml:"aliases"`
	Base         float64  `toml:"base"`
	Depreciation float64  `toml:"depreciation"`
}

// BaseOffer is the canned offer for a product line.
type BaseOffer struct {
	Kind     domain.InsuranceKind `toml:"kind"`
	Premium  int64                `toml:"premium"`
	Coverage string               `toml:"coverage"`
	Discount string               `toml:"discount"`
	Features []string             `toml:"features"`
}

var (
	baselineOnce sync.Once
	baseline     *Catalog
	baselineErr  error
)

// Baseline returns the embedded catalog. It panics if the embedded data is
// malformed, which only a broken build can cause.
func Baseline() *Catalog {
	baselineOnce.Do(func() {
		baseline, baselineErr = Parse(baselineTOML)
	})
	if baselineErr != nil {
		panic("pricing: invalid embedded catalog: " + baselineErr.Error())
	}
	return baseline
}

// Parse decodes a TOML catalog.
func Parse(data string) (*Catalog, error) {
	var c Catalog
	if _, err := toml.Decode(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(c.Motor.Rates) == 0 {
		return nil, fmt.Errorf("catalog has no motor rates")
	}
	sort.Slice(c.Motor.Rates, func(i, j int) bool { return c.Motor.Rates[i].MaxAge < c.Motor.Rates[j].MaxAge })
	if len(c.Offers) == 0 {
		return nil, fmt.Errorf("catalog has no base offers")
	}
	return &c, nil
}

// Car finds the value entry matching a free-text model such as "City" or
// "Honda City". Unknown models get the default entry.
func (c *Catalog) Car(model string) CarValue {
	m := strings.ToLower(strings.TrimSpace(model))
	if m != "" {
		for _, car := range c.Cars {
			if strings.Contains(m, car.Model) {
				return car
			}
			for _, alias := range car.Aliases {
				if strings.Contains(m, alias) {
					return car
				}
			}
		}
	}
	return CarValue{Model: m, Base: c.Motor.DefaultBase, Depreciation: c.Motor.DefaultDepreciation}
}

// RateFor returns the comprehensive rate band for a car age in years.
func (c *Catalog) RateFor(age int) AgeRate {
	for _, r := range c.Motor.Rates {
		if age <= r.MaxAge {
			return r
		}
	}
	return c.Motor.Rates[len(c.Motor.Rates)-1]
}

// Offer returns the canned offer for kind, defaulting to the car offer.
func (c *Catalog) Offer(kind domain.InsuranceKind) domain.Offer {
	var chosen *BaseOffer
	for i := range c.Offers {
		if c.Offers[i].Kind == kind {
			chosen = &c.Offers[i]
			break
		}
		if c.Offers[i].Kind == domain.KindCar && chosen == nil {
			chosen = &c.Offers[i]
		}
	}
	if chosen == nil {
		chosen = &c.Offers[0]
	}
	return domain.Offer{
		Premium:  FormatRupees(chosen.Premium) + "/year",
		Coverage: chosen.Coverage,
		Discount: chosen.Discount,
		Features: append([]string(nil), chosen.Features...),
	}
}

// Package returns the health package with the given key.
func (c *Catalog) Package(key string) (domain.HealthPackage, bool) {
	for _, p := range c.Packages {
		if p.Key == key {
			return p, true
		}
	}
	return domain.HealthPackage{}, false
}
