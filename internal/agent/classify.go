package agent

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/llm"
	"github.com/ashureev/insurance-a2a/internal/pricing"
)

var (
	healthWords   = regexp.MustCompile(`(?i)\b(health|medical|mediclaim|hospital|hospitali[sz]ed|hospitali[sz]ation|surgery)\b`)
	motorWords    = regexp.MustCompile(`(?i)\b(motor|car|cars|vehicle|accident|bike|collision)\b`)
	lifeWords     = regexp.MustCompile(`(?i)\b(life|term plan|death)\b`)
	homeWords     = regexp.MustCompile(`(?i)\b(home|house|property|flat|apartment)\b`)
	thirdParty    = regexp.MustCompile(`(?i)third[\s-]?party`)
	yearPattern   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	amountPattern = regexp.MustCompile(`(?i)(₹|\brs\.?|\binr)?\s*(\d[\d,]*)\s*(lakhs?|lacs?|k\b)?`)
)

var carModels = []string{"swift", "i20", "city", "baleno", "nexon", "xuv500", "innova", "verna", "creta", "venue"}

// ClaimClassifier routes claim text to a claim kind.
type ClaimClassifier interface {
	Classify(ctx context.Context, text string) domain.ClaimKind
}

// KeywordClassifier is the deterministic first layer of claim routing.
type KeywordClassifier struct{}

// Classify matches health, then motor, then life keywords.
func (KeywordClassifier) Classify(_ context.Context, text string) domain.ClaimKind {
	switch {
	case healthWords.MatchString(text):
		return domain.ClaimHealth
	case motorWords.MatchString(text):
		return domain.ClaimMotor
	case lifeWords.MatchString(text):
		return domain.ClaimLife
	default:
		return domain.ClaimUnknown
	}
}

var claimKindSchema = &llm.Schema{
	Name:        "classify_claim",
	Description: "Classify an insurance claim by the policy line it falls under",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"claimType": map[string]any{
				"type": "string",
				"enum": []string{string(domain.ClaimHealth), string(domain.ClaimMotor), string(domain.ClaimLife), string(domain.ClaimUnknown)},
			},
		},
		"required":             []string{"claimType"},
		"additionalProperties": false,
	},
}

// ModelClassifier asks the completion provider. Any failure yields unknown.
type ModelClassifier struct {
	LLM   llm.Completer
	Model string
}

// Classify implements ClaimClassifier.
func (m ModelClassifier) Classify(ctx context.Context, text string) domain.ClaimKind {
	if m.LLM == nil {
		return domain.ClaimUnknown
	}
	resp, err := m.LLM.Complete(ctx, llm.Request{
		Model:       m.Model,
		System:      "You route insurance claims. Answer with the policy line the claim belongs to.",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: text}},
		Temperature: 0,
		MaxTokens:   50,
		Schema:      claimKindSchema,
	})
	if err != nil {
		return domain.ClaimUnknown
	}
	var out struct {
		ClaimType domain.ClaimKind `json:"claimType"`
	}
	if err := decodeStrict(resp.Content, &out); err != nil {
		return domain.ClaimUnknown
	}
	switch out.ClaimType {
	case domain.ClaimHealth, domain.ClaimMotor, domain.ClaimLife:
		return out.ClaimType
	default:
		return domain.ClaimUnknown
	}
}

// LayeredClassifier consults Rules first and Model only for unknown results.
type LayeredClassifier struct {
	Rules ClaimClassifier
	Model ClaimClassifier
}

// Classify implements ClaimClassifier.
func (l LayeredClassifier) Classify(ctx context.Context, text string) domain.ClaimKind {
	kind := l.Rules.Classify(ctx, text)
	if kind != domain.ClaimUnknown || l.Model == nil {
		return kind
	}
	return l.Model.Classify(ctx, text)
}

// ClassifyInsurance picks the product line a purchase request is about.
// Requests that name no line are treated as motor.
func ClassifyInsurance(text string) domain.InsuranceKind {
	switch {
	case healthWords.MatchString(text):
		return domain.KindHealth
	case lifeWords.MatchString(text):
		return domain.KindLife
	case homeWords.MatchString(text) && !motorWords.MatchString(text):
		return domain.KindHome
	default:
		return domain.KindCar
	}
}

// CarQueryFrom extracts model, year and coverage from text, filling gaps
// from the profile's primary car.
func CarQueryFrom(text string, profile domain.UserProfile) pricing.CarQuery {
	lower := strings.ToLower(text)
	q := pricing.CarQuery{Coverage: pricing.CoverageComprehensive}
	if thirdParty.MatchString(lower) {
		q.Coverage = pricing.CoverageThirdParty
	}
	for _, m := range carModels {
		if strings.Contains(lower, m) {
			q.Model = m
			break
		}
	}
	if y := yearPattern.FindString(lower); y != "" {
		q.Year, _ = strconv.Atoi(y)
	}

	car, ok := profile.PrimaryVehicle()
	if q.Model == "" {
		if ok {
			q.Model = car.Make + " " + car.Model
		} else {
			q.Model = "generic car"
		}
	}
	if q.Year == 0 {
		if ok && car.Year > 0 {
			q.Year = car.Year
		} else {
			q.Year = 2020
		}
	}
	return q
}

// ExtractAmount returns the first rupee amount in text. Bare numbers only
// count when they carry digit grouping, a currency marker or a unit.
func ExtractAmount(text string) int64 {
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		prefix, digits, unit := m[1], m[2], strings.ToLower(m[3])
		if prefix == "" && unit == "" && !strings.Contains(digits, ",") {
			continue
		}
		n := domain.ParseAmount(digits)
		mult := int64(1)
		switch {
		case strings.HasPrefix(unit, "l"):
			mult = 100000
		case unit == "k":
			mult = 1000
		}
		// Figures that overflow once scaled are not amounts.
		if n > math.MaxInt64/mult {
			continue
		}
		n *= mult
		if n > 0 {
			return n
		}
	}
	return 0
}
