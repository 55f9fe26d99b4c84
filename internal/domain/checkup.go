package domain

// HealthPackage is a bookable checkup package.
type HealthPackage struct {
	Key        string   `json:"key" toml:"key"`
	Name       string   `json:"name" toml:"name"`
	Price      int64    `json:"price" toml:"price"`
	Tests      []string `json:"tests" toml:"tests"`
	Duration   string   `json:"duration" toml:"duration"`
	Fasting    string   `json:"fasting" toml:"fasting"`
	ReportTime string   `json:"reportTime" toml:"report_time"`
}

// CheckupCoverage says whether the user's health policy pays for the checkup.
type CheckupCoverage struct {
	Covered        bool   `json:"covered"`
	CoverageAmount int64  `json:"coverageAmount,omitempty"`
	Message        string `json:"message"`
}

// CheckupPrice is the discounted price breakdown.
type CheckupPrice struct {
	OriginalPrice   int64    `json:"originalPrice"`
	Discount        int64    `json:"discount"`
	FinalPrice      int64    `json:"finalPrice"`
	DiscountReasons []string `json:"discountReasons"`
}

// PackageRecommendation is the scheduling agent's package choice.
type PackageRecommendation struct {
	PackageType       string          `json:"packageType"`
	Package           HealthPackage   `json:"packageDetails"`
	Reasons           []string        `json:"reasons"`
	InsuranceCoverage CheckupCoverage `json:"insuranceCoverage"`
	TotalCost         int64           `json:"totalCost"`
	DiscountedCost    CheckupPrice    `json:"discountedCost"`
}

// Slot is an appointment slot.
type Slot struct {
	Date      string `json:"date"`
	Day       string `json:"day"`
	Time      string `json:"time"`
	Period    string `json:"type"`
	Available bool   `json:"available"`
}

// DiagnosticCenter is a location where checkups are performed.
type DiagnosticCenter struct {
	Name       string   `json:"name" toml:"name"`
	Address    string   `json:"address" toml:"address"`
	DistanceKM float64  `json:"distanceKm" toml:"distance_km"`
	Facilities []string `json:"facilities" toml:"facilities"`
}

// CheckupResult is the scheduling agent's terminal output.
type CheckupResult struct {
	BookingID       string                 `json:"bookingId"`
	ProcessingSteps []string               `json:"checkupProcessingSteps"`
	Recommendation  *PackageRecommendation `json:"recommendation"`
	AvailableSlots  []Slot                 `json:"availableSlots"`
	Locations       []DiagnosticCenter     `json:"locations"`
	NextSteps       []string               `json:"nextSteps"`
	Error           string                 `json:"error,omitempty"`
}
