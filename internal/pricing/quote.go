package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ashureev/insurance-a2a/internal/domain"
)

// Coverage types for motor quotes.
const (
	CoverageComprehensive = "comprehensive"
	CoverageThirdParty    = "third-party"
)

const (
	defaultCacheTTL = time.Hour
	quoteValidity   = 24 * time.Hour
	sourceLive      = "TATA AIG Real-time Data"
	sourceFallback  = "Fallback Data"
)

// ErrInvalidQuery is returned for queries that cannot be priced.
var ErrInvalidQuery = errors.New("pricing: invalid query")

// CarQuery describes the car to price.
type CarQuery struct {
	Model    string `json:"carModel"`
	Year     int    `json:"year"`
	Coverage string `json:"coverageType"`
}

func (q CarQuery) key() string {
	return fmt.Sprintf("car_%s_%d_%s", strings.ToLower(q.Model), q.Year, q.Coverage)
}

// Quote is a priced motor quote.
type Quote struct {
	PolicyName   string    `json:"policyName"`
	PlanName     string    `json:"planName"`
	Premium      int64     `json:"premium"`
	Coverage     string    `json:"coverage"`
	Discount     string    `json:"discount"`
	Features     []string  `json:"features"`
	NCB          string    `json:"ncb"`
	SpecialOffer string    `json:"specialOffers"`
	IDV          int64     `json:"idv"`
	Source       string    `json:"source"`
	ValidUntil   time.Time `json:"validUntil"`
}

// Offer converts the quote into an offer shown to the user.
func (q Quote) Offer() domain.Offer {
	return domain.Offer{
		PolicyName: q.PolicyName,
		PlanName:   q.PlanName,
		Premium:    FormatRupees(q.Premium) + "/year",
		Coverage:   q.Coverage,
		Discount:   q.Discount,
		Features:   append([]string(nil), q.Features...),
	}
}

// Service prices motor quotes from the catalog and caches the results.
type Service struct {
	catalog   *Catalog
	cache     *quoteCache
	now       func() time.Time
	variation float64
	random    func() float64
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCacheTTL sets how long quotes are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cache.ttl = ttl
		}
	}
}

// WithVariation applies a random ±fraction to computed premiums.
// random must return values in [0, 1).
func WithVariation(fraction float64, random func() float64) Option {
	return func(s *Service) {
		s.variation = fraction
		s.random = random
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a pricing service over catalog.
func NewService(catalog *Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		now:     time.Now,
		logger:  slog.Default(),
	}
	s.cache = newQuoteCache(defaultCacheTTL, func() time.Time { return s.now() })
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "pricing")
	return s
}

// Catalog returns the catalog backing the service.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// CarQuote returns a cached or freshly priced quote. Pricing failures are
// logged and answered with the catalog fallback quote.
func (s *Service) CarQuote(ctx context.Context, q CarQuery) (Quote, error) {
	if q.Coverage == "" {
		q.Coverage = CoverageComprehensive
	}
	key := q.key()
	if cached, ok := s.cache.get(key); ok {
		return cached, nil
	}

	quote, err := s.Price(ctx, q)
	if err != nil {
		s.logger.Warn("Motor pricing failed, using fallback quote", "error", err, "model", q.Model, "year", q.Year)
		return s.Fallback(), nil
	}
	s.cache.set(key, quote)
	return quote, nil
}

// Price computes a quote without touching the cache.
func (s *Service) Price(ctx context.Context, q CarQuery) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	now := s.now()
	if q.Year < 1980 || q.Year > now.Year()+1 {
		return Quote{}, fmt.Errorf("%w: year %d", ErrInvalidQuery, q.Year)
	}

	age := now.Year() - q.Year
	if age < 0 {
		age = 0
	}
	value := s.EstimateValue(q.Model, age)
	premium := s.basePremium(value, age, q.Coverage)
	if s.variation > 0 && s.random != nil {
		premium = int64(math.Round(float64(premium) * (1 + (s.random()*2-1)*s.variation)))
	}

	m := s.catalog.Motor
	plan := "Comprehensive Plan"
	features := append([]string(nil), m.BaseFeatures...)
	if q.Coverage == CoverageThirdParty {
		plan = "Third Party Plan"
	} else {
		features = append(features, m.ComprehensiveFeatures...)
	}

	return Quote{
		PolicyName:   m.PolicyName,
		PlanName:     plan,
		Premium:      premium,
		Coverage:     fmt.Sprintf("%s (IDV) + %s (Third Party)", FormatRupees(value), m.ThirdPartyCover),
		Discount:     s.catalog.RateFor(age).Discount,
		Features:     features,
		NCB:          m.NCB,
		SpecialOffer: s.specialOffer(q.Year),
		IDV:          value,
		Source:       sourceLive,
		ValidUntil:   now.Add(quoteValidity),
	}, nil
}

// EstimateValue depreciates the model's base value over age years.
func (s *Service) EstimateValue(model string, age int) int64 {
	car := s.catalog.Car(model)
	return int64(math.Round(car.Base * math.Pow(1-car.Depreciation, float64(age))))
}

func (s *Service) basePremium(value int64, age int, coverage string) int64 {
	m := s.catalog.Motor
	if coverage == CoverageThirdParty {
		return int64(math.Round(m.ThirdPartyBase + float64(value)*m.ThirdPartyRate))
	}
	rate := s.catalog.RateFor(age).Rate
	return int64(math.Round(float64(value)*rate + m.FixedCharges))
}

func (s *Service) specialOffer(year int) string {
	offers := s.catalog.Motor.SpecialOffers
	if len(offers) == 0 {
		return ""
	}
	if s.random != nil {
		return offers[int(s.random()*float64(len(offers)))%len(offers)]
	}
	return offers[year%len(offers)]
}

// Fallback returns the catalog's default motor quote.
func (s *Service) Fallback() Quote {
	f := s.catalog.Motor.Fallback
	return Quote{
		PolicyName:   f.PolicyName,
		PlanName:     f.PlanName,
		Premium:      f.Premium,
		Coverage:     f.Coverage,
		Discount:     f.Discount,
		Features:     append([]string(nil), f.Features...),
		NCB:          f.NCB,
		SpecialOffer: f.SpecialOffer,
		IDV:          domain.ParseAmount(f.Coverage),
		Source:       sourceFallback,
		ValidUntil:   s.now().Add(quoteValidity),
	}
}
