package compliance

//go:generate mockgen -source=sources.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	id "accessgate/pkg/domain"
)

// TrainingCredential is a credential issued by the training provider.
// IssuedAt moves forward each time the provider reissues it.
type TrainingCredential struct {
	Name      string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// TrainingCredentialSource reads the training provider. LookupExternalID
// reports ok=false when the user has no account there.
type TrainingCredentialSource interface {
	LookupExternalID(ctx context.Context, userID id.UserID) (externalID string, ok bool, err error)
	GetCredential(ctx context.Context, externalID, credentialName string) (*TrainingCredential, error)
}

// LinkStatus is the user's link to the federal research registration system.
type LinkStatus struct {
	LinkedUsername string
	LinkExpiresAt  *time.Time
}

type FederalRegistrationSource interface {
	GetLinkStatus(ctx context.Context, userID id.UserID) (*LinkStatus, error)
}

type Enrollment struct {
	Enrolled bool
}

// TwoFactorSource returns a nil enrollment when the directory does not know
// the user.
type TwoFactorSource interface {
	GetEnrollment(ctx context.Context, userID id.UserID) (*Enrollment, error)
}

// IdentityProvider names an identity-verification login provider.
type IdentityProvider string

const (
	ProviderLoginGov IdentityProvider = "login.gov"
	ProviderIDMe     IdentityProvider = "id.me"
)

type IdentityLogin struct {
	Provider   IdentityProvider
	VerifiedAt time.Time
}

// IdentityLoginSource returns a nil login when the user has not verified with
// the provider.
type IdentityLoginSource interface {
	GetIdentityLogin(ctx context.Context, userID id.UserID, provider IdentityProvider) (*IdentityLogin, error)
}
