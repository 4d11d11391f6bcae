package audit

import (
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: user creation
	// and the compensation of partially created accounts.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers failed authentication and rejected provisioning.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine token traffic.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category     EventCategory `json:"category"`
	Timestamp    time.Time     `json:"timestamp"`
	Action       string        `json:"action"`
	Subject      string        `json:"subject,omitempty"`
	RemoteUserID string        `json:"remote_user_id,omitempty"`
	ActorID      string        `json:"actor_id,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	RequestID    string        `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	// Token events
	EventTokenIssued    AuditEvent = "token_issued"
	EventTokenRefreshed AuditEvent = "token_refreshed"
	EventTokenValidated AuditEvent = "token_validated"
	EventAuthFailed     AuditEvent = "auth_failed"

	// Provisioning events
	EventUserCreated            AuditEvent = "user_created"
	EventUserRejected           AuditEvent = "user_rejected"
	EventUserProvisioningFailed AuditEvent = "user_provisioning_failed"
	EventRemoteUserCompensated  AuditEvent = "remote_user_compensated"
	EventRemoteUserOrphaned     AuditEvent = "remote_user_orphaned"
	EventAdminTokenRefreshed    AuditEvent = "admin_token_refreshed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:           CategoryCompliance,
	EventRemoteUserCompensated: CategoryCompliance,
	EventRemoteUserOrphaned:    CategoryCompliance,

	EventAuthFailed:             CategorySecurity,
	EventUserRejected:           CategorySecurity,
	EventUserProvisioningFailed: CategorySecurity,

	EventTokenIssued:         CategoryOperations,
	EventTokenRefreshed:      CategoryOperations,
	EventTokenValidated:      CategoryOperations,
	EventAdminTokenRefreshed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// NewEvent builds an event for the given action with its category filled in.
func NewEvent(action AuditEvent, subject string) Event {
	return Event{
		Category: action.Category(),
		Action:   string(action),
		Subject:  subject,
	}
}
