package domain

// Claim statuses reported to the user.
const (
	ClaimApproved    = "Approved"
	ClaimUnderReview = "Under Review"
	ClaimError       = "Error"
)

// ClaimKind is the deterministic routing class of a claim.
type ClaimKind string

const (
	ClaimHealth  ClaimKind = "health"
	ClaimMotor   ClaimKind = "motor"
	ClaimLife    ClaimKind = "life"
	ClaimUnknown ClaimKind = "unknown"
)

// ClaimAssessment is the rule evaluation of a claim against a policy.
type ClaimAssessment struct {
	Approved          bool     `json:"approved"`
	Amount            int64    `json:"amount"`
	Reason            string   `json:"reason"`
	RequiredDocuments []string `json:"requiredDocuments"`
	NextSteps         []string `json:"nextSteps"`
}

// ClaimContact is the support contact attached to every claim.
type ClaimContact struct {
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	ChatSupport string `json:"chatSupport"`
}

// ClaimResult is the claims agent's terminal output.
type ClaimResult struct {
	ClaimID             string          `json:"claimId"`
	ClaimType           ClaimKind       `json:"claimType"`
	Status              string          `json:"status"`
	ProcessingSteps     []string        `json:"claimProcessingSteps"`
	Assessment          ClaimAssessment `json:"assessment"`
	NextSteps           []string        `json:"nextSteps"`
	EstimatedSettlement string          `json:"estimatedSettlement"`
	Contact             ClaimContact    `json:"contact"`
}
