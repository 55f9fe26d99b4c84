package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message in a session's history. Turns are never
// mutated after they are appended.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ServiceType is the requester's classification of what the user wants.
type ServiceType string

const (
	ServicePolicyInfo    ServiceType = "policy_info"
	ServiceClaims        ServiceType = "claims"
	ServiceHealthCheckup ServiceType = "health_checkup"
	ServiceGeneral       ServiceType = "general"
)

// ServiceTypes lists every valid service type in schema order.
var ServiceTypes = []ServiceType{ServicePolicyInfo, ServiceClaims, ServiceHealthCheckup, ServiceGeneral}

// Valid reports whether s is one of the known service types.
func (s ServiceType) Valid() bool {
	for _, t := range ServiceTypes {
		if s == t {
			return true
		}
	}
	return false
}

// NegotiationStatus tracks a negotiation record through its staged exchanges.
type NegotiationStatus string

const (
	StatusNegotiating   NegotiationStatus = "negotiating"
	StatusOffered       NegotiationStatus = "offered"
	StatusRenegotiating NegotiationStatus = "renegotiating"
	StatusAccepted      NegotiationStatus = "accepted"
	StatusDelivered     NegotiationStatus = "delivered"
	StatusAbandoned     NegotiationStatus = "abandoned"
)

// Terminal reports whether no further exchange may run against the record.
func (s NegotiationStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusAbandoned
}

// CompletedTransaction marks a confirmed terminal outcome for suppression.
type CompletedTransaction struct {
	SessionID   string    `json:"sessionId"`
	ReferenceID string    `json:"referenceId"`
	CompletedAt time.Time `json:"completedAt"`
}
