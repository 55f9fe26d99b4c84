package domain

// InsuranceKind is the product line an offer is negotiated for.
type InsuranceKind string

const (
	KindCar    InsuranceKind = "car"
	KindHealth InsuranceKind = "health"
	KindLife   InsuranceKind = "life"
	KindHome   InsuranceKind = "home"
)

// Label returns a display name such as "car insurance".
func (k InsuranceKind) Label() string {
	if k == "" {
		return "insurance"
	}
	return string(k) + " insurance"
}

// Offer is a priced insurance offer from the provider.
type Offer struct {
	PolicyName string   `json:"policyName,omitempty"`
	PlanName   string   `json:"planName,omitempty"`
	Premium    string   `json:"premium"`
	Coverage   string   `json:"coverage"`
	Discount   string   `json:"discount"`
	Features   []string `json:"features"`
}

// PremiumAmount returns the premium in rupees, or 0 if it cannot be parsed.
func (o Offer) PremiumAmount() int64 {
	return ParseAmount(o.Premium)
}

// Clone returns a deep copy of the offer.
func (o Offer) Clone() Offer {
	o.Features = append([]string(nil), o.Features...)
	return o
}

// Proposal is the provider's full answer to a negotiation request.
type Proposal struct {
	Steps     []string      `json:"negotiationSteps"`
	Offer     Offer         `json:"finalOffer"`
	Reasoning string        `json:"reasoning,omitempty"`
	Kind      InsuranceKind `json:"insuranceType,omitempty"`
	Source    string        `json:"source,omitempty"`
}

// PaymentDetails is the simulated payment setup produced on acceptance.
type PaymentDetails struct {
	Amount        string   `json:"amount"`
	AmountValue   int64    `json:"amountValue"`
	Term          string   `json:"term"`
	DueDate       string   `json:"dueDate"`
	PolicyType    string   `json:"policyType"`
	PaymentID     string   `json:"paymentId"`
	TransactionID string   `json:"transactionId"`
	MerchantID    string   `json:"merchantId"`
	RedirectURL   string   `json:"redirectUrl,omitempty"`
	Features      []string `json:"features"`
}

// PendingPayment holds what policy issuance needs once payment succeeds.
type PendingPayment struct {
	NegotiationID string
	Kind          InsuranceKind
	Offer         Offer
	Payment       PaymentDetails
}

// PaymentConfirmation is the client's report of a finished payment.
type PaymentConfirmation struct {
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// PolicyDocument is the simulated issued policy.
type PolicyDocument struct {
	PolicyNumber   string   `json:"policyNumber"`
	IssueDate      string   `json:"issueDate"`
	ExpiryDate     string   `json:"expiryDate"`
	PolicyType     string   `json:"policyType"`
	Premium        string   `json:"premium"`
	Coverage       string   `json:"coverage"`
	Features       []string `json:"features"`
	TransactionID  string   `json:"transactionId,omitempty"`
	DocumentURL    string   `json:"documentUrl"`
	CertificateURL string   `json:"certificateUrl"`
}
