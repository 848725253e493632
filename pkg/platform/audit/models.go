package audit

import (
	"context"
	"time"

	id "accessgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers access decisions and administrative overrides.
	// These feed cohort/audit reporting and are retained long term.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine synchronization and lifecycle activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	// Subject names the thing acted on: a module, a tier, an institution.
	Subject string
	Action  string
	Reason  string
	// ActorID is the administrator or job that performed the action when it
	// was not the user.
	ActorID   string
	RequestID string
}

type AuditEvent string

const (
	EventModuleCompleted  AuditEvent = "module_completed"
	EventModuleCleared    AuditEvent = "module_cleared"
	EventModuleBypassed   AuditEvent = "module_bypassed"
	EventModuleUnbypassed AuditEvent = "module_unbypassed"

	EventTierEnabled  AuditEvent = "tier_enabled"
	EventTierDisabled AuditEvent = "tier_disabled"

	EventCreditsCreated       AuditEvent = "initial_credits_created"
	EventCreditsExtended      AuditEvent = "initial_credits_extended"
	EventCreditsBypassChanged AuditEvent = "initial_credits_bypass_changed"
	EventCreditsExpiringSoon  AuditEvent = "initial_credits_expiring_soon"
	EventCreditsExpired       AuditEvent = "initial_credits_expired"

	EventInstitutionCreated AuditEvent = "institution_created"
	EventInstitutionDeleted AuditEvent = "institution_deleted"
	EventAffiliationChanged AuditEvent = "affiliation_changed"

	EventUserDisabledChanged   AuditEvent = "user_disabled_changed"
	EventCodeOfConductSigned   AuditEvent = "code_of_conduct_signed"
	EventProfileConfirmed      AuditEvent = "profile_confirmed"
	EventPublicationsConfirmed AuditEvent = "publications_confirmed"
	EventReconcileUserFailed   AuditEvent = "reconcile_user_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventModuleBypassed:        CategoryCompliance,
	EventModuleUnbypassed:      CategoryCompliance,
	EventTierEnabled:           CategoryCompliance,
	EventTierDisabled:          CategoryCompliance,
	EventCreditsBypassChanged:  CategoryCompliance,
	EventAffiliationChanged:    CategoryCompliance,
	EventUserDisabledChanged:   CategoryCompliance,
	EventCodeOfConductSigned:   CategoryCompliance,
	EventProfileConfirmed:      CategoryCompliance,
	EventPublicationsConfirmed: CategoryCompliance,
	EventInstitutionDeleted:    CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
