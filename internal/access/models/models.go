package models

import (
	"time"

	id "accessgate/pkg/domain"
)

// ModuleName identifies one compliance requirement in the catalog.
type ModuleName string

const (
	ModuleTwoFactorAuth           ModuleName = "TWO_FACTOR_AUTH"
	ModuleEraCommons              ModuleName = "ERA_COMMONS"
	ModuleComplianceTraining      ModuleName = "COMPLIANCE_TRAINING"
	ModuleCTComplianceTraining    ModuleName = "CT_COMPLIANCE_TRAINING"
	ModuleCodeOfConduct           ModuleName = "DATA_USER_CODE_OF_CONDUCT"
	ModuleRasLoginGov             ModuleName = "RAS_LOGIN_GOV"
	ModuleRasIDMe                 ModuleName = "RAS_ID_ME"
	ModuleIdentity                ModuleName = "IDENTITY"
	ModuleProfileConfirmation     ModuleName = "PROFILE_CONFIRMATION"
	ModulePublicationConfirmation ModuleName = "PUBLICATION_CONFIRMATION"
)

var allModuleNames = []ModuleName{
	ModuleTwoFactorAuth,
	ModuleEraCommons,
	ModuleComplianceTraining,
	ModuleCTComplianceTraining,
	ModuleCodeOfConduct,
	ModuleRasLoginGov,
	ModuleRasIDMe,
	ModuleIdentity,
	ModuleProfileConfirmation,
	ModulePublicationConfirmation,
}

// AllModuleNames returns every known module in declaration order.
func AllModuleNames() []ModuleName {
	out := make([]ModuleName, len(allModuleNames))
	copy(out, allModuleNames)
	return out
}

func (m ModuleName) IsValid() bool {
	switch m {
	case ModuleTwoFactorAuth, ModuleEraCommons, ModuleComplianceTraining, ModuleCTComplianceTraining,
		ModuleCodeOfConduct, ModuleRasLoginGov, ModuleRasIDMe, ModuleIdentity,
		ModuleProfileConfirmation, ModulePublicationConfirmation:
		return true
	}
	return false
}

func (m ModuleName) String() string { return string(m) }

// IsIdentityProvider reports whether the module is one of the RAS logins that
// also satisfy IDENTITY.
func (m ModuleName) IsIdentityProvider() bool {
	return m == ModuleRasLoginGov || m == ModuleRasIDMe
}

// EvaluatorKey selects the synchronizer that verifies a module.
type EvaluatorKey string

const (
	EvaluatorTwoFactor           EvaluatorKey = "two-factor"
	EvaluatorFederalRegistration EvaluatorKey = "federal-registration"
	EvaluatorTrainingProvider    EvaluatorKey = "training-provider"
	EvaluatorIdentityLogin       EvaluatorKey = "identity-login"
	EvaluatorAcknowledgment      EvaluatorKey = "acknowledgment"
)

func (k EvaluatorKey) IsValid() bool {
	switch k {
	case EvaluatorTwoFactor, EvaluatorFederalRegistration, EvaluatorTrainingProvider,
		EvaluatorIdentityLogin, EvaluatorAcknowledgment:
		return true
	}
	return false
}

// ModuleKind separates modules verified against an external system from
// acknowledgments recorded by this service.
type ModuleKind string

const (
	KindExternalCredential     ModuleKind = "EXTERNAL_CREDENTIAL"
	KindInternalAcknowledgment ModuleKind = "INTERNAL_ACKNOWLEDGMENT"
)

func (k ModuleKind) IsValid() bool {
	return k == KindExternalCredential || k == KindInternalAcknowledgment
}

// Status is shared by per-user module and tier records.
type Status string

const (
	StatusEnabled  Status = "ENABLED"
	StatusDisabled Status = "DISABLED"
)

// AccessModule is an immutable catalog entry.
type AccessModule struct {
	Name        ModuleName   `json:"name"`
	Evaluator   EvaluatorKey `json:"evaluator"`
	DisplayName string       `json:"display_name"`
	Kind        ModuleKind   `json:"kind"`
	Bypassable  bool         `json:"bypassable"`
}

// AccessTier is an immutable catalog entry naming the modules a user must
// satisfy to be granted the tier.
type AccessTier struct {
	ShortName       string       `json:"short_name"`
	DisplayName     string       `json:"display_name"`
	AuthDomainID    string       `json:"auth_domain_id"`
	DataPerimeterID string       `json:"data_perimeter_id"`
	RequiredModules []ModuleName `json:"required_modules"`
}

// UserAccessModule is the per-user state of one module. Records are never
// deleted; a revoked credential clears CompletionTime instead.
//
// Invariants:
//   - Satisfied iff CompletionTime or BypassTime is set
//   - Status is ENABLED iff satisfied
//   - FirstEnabledAt is set on the first ENABLED transition and never changes
type UserAccessModule struct {
	UserID              id.UserID  `json:"user_id"`
	Module              ModuleName `json:"module"`
	Status              Status     `json:"status"`
	CompletionTime      *time.Time `json:"completion_time,omitempty"`
	BypassTime          *time.Time `json:"bypass_time,omitempty"`
	FirstEnabledAt      *time.Time `json:"first_enabled_at,omitempty"`
	LastUpdatedAt       time.Time  `json:"last_updated_at"`
	CredentialName      string     `json:"credential_name,omitempty"`
	CredentialExpiresAt *time.Time `json:"credential_expires_at,omitempty"`
	// Version is the optimistic concurrency token. Zero means not yet stored.
	Version int64 `json:"-"`
}

// NewUserAccessModule returns an unsatisfied record that has not been stored.
func NewUserAccessModule(userID id.UserID, module ModuleName) *UserAccessModule {
	return &UserAccessModule{UserID: userID, Module: module, Status: StatusDisabled}
}

func (m *UserAccessModule) IsSatisfied() bool {
	return m != nil && (m.CompletionTime != nil || m.BypassTime != nil)
}

func (m *UserAccessModule) IsBypassed() bool {
	return m != nil && m.BypassTime != nil
}

// Touch recomputes Status after a mutation and stamps the timestamps.
func (m *UserAccessModule) Touch(now time.Time) {
	if m.IsSatisfied() {
		m.Status = StatusEnabled
		if m.FirstEnabledAt == nil {
			t := now
			m.FirstEnabledAt = &t
		}
	} else {
		m.Status = StatusDisabled
	}
	m.LastUpdatedAt = now
}

// Clone returns a deep copy so callers can diff before and after a mutation.
func (m *UserAccessModule) Clone() *UserAccessModule {
	if m == nil {
		return nil
	}
	c := *m
	c.CompletionTime = cloneTime(m.CompletionTime)
	c.BypassTime = cloneTime(m.BypassTime)
	c.FirstEnabledAt = cloneTime(m.FirstEnabledAt)
	c.CredentialExpiresAt = cloneTime(m.CredentialExpiresAt)
	return &c
}

// UserAccessTier is the materialized eligibility of a user for one tier.
type UserAccessTier struct {
	UserID         id.UserID  `json:"user_id"`
	Tier           string     `json:"tier"`
	Status         Status     `json:"status"`
	FirstEnabledAt *time.Time `json:"first_enabled_at,omitempty"`
	LastUpdatedAt  time.Time  `json:"last_updated_at"`
	Version        int64      `json:"-"`
}

func (t *UserAccessTier) IsEnabled() bool {
	return t != nil && t.Status == StatusEnabled
}

// NewUserAccessTier returns a DISABLED record that has not been stored. An
// absent tier record and a DISABLED one are equivalent.
func NewUserAccessTier(userID id.UserID, tier string) *UserAccessTier {
	return &UserAccessTier{UserID: userID, Tier: tier, Status: StatusDisabled}
}

// Transition moves the record to status and reports whether anything
// changed. FirstEnabledAt moves only on a DISABLED to ENABLED transition.
func (t *UserAccessTier) Transition(status Status, now time.Time) bool {
	if t.Status == status {
		return false
	}
	if status == StatusEnabled {
		n := now
		t.FirstEnabledAt = &n
	}
	t.Status = status
	t.LastUpdatedAt = now
	return true
}

// ModuleCompliance is the evaluated view of one module for one user.
type ModuleCompliance struct {
	Module    AccessModule      `json:"module"`
	Enabled   bool              `json:"enabled"`
	State     *UserAccessModule `json:"state,omitempty"`
	Satisfied bool              `json:"satisfied"`
	Expired   bool              `json:"expired"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Compliant bool              `json:"compliant"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
