package compliance

import (
	"context"
	"time"

	"accessgate/internal/access/catalog"
	"accessgate/internal/access/models"
	accessservice "accessgate/internal/access/service"
	usermodels "accessgate/internal/users/models"
	"accessgate/pkg/requestcontext"
)

// IdentityLoginSynchronizer syncs each identity-verification login module
// and derives IDENTITY from them: IDENTITY is complete while any login is.
type IdentityLoginSynchronizer struct {
	base
	source    IdentityLoginSource
	providers map[models.ModuleName]IdentityProvider
}

func NewIdentityLoginSynchronizer(source IdentityLoginSource, writer ModuleWriter, cat *catalog.Catalog, retrier *Retrier) *IdentityLoginSynchronizer {
	return &IdentityLoginSynchronizer{
		base:   base{catalog: cat, writer: writer, retrier: retrier},
		source: source,
		providers: map[models.ModuleName]IdentityProvider{
			models.ModuleRasLoginGov: ProviderLoginGov,
			models.ModuleRasIDMe:     ProviderIDMe,
		},
	}
}

func (s *IdentityLoginSynchronizer) Key() models.EvaluatorKey {
	return models.EvaluatorIdentityLogin
}

// Sync clears a login module on a nil login or not_found. Every provider is
// read before anything is written.
func (s *IdentityLoginSynchronizer) Sync(ctx context.Context, user *usermodels.User) error {
	modules := s.enabled(models.ModuleRasLoginGov, models.ModuleRasIDMe)
	if len(modules) == 0 {
		return nil
	}

	logins := make(map[models.ModuleName]*IdentityLogin, len(modules))
	for _, module := range modules {
		provider := s.providers[module]
		login, err := Call(ctx, s.retrier, func(ctx context.Context) (*IdentityLogin, error) {
			return s.source.GetIdentityLogin(ctx, user.ID, provider)
		})
		if err != nil && !IsNotFound(err) {
			return err
		}
		logins[module] = login
	}

	now := requestcontext.Now(ctx)
	var earliest *IdentityLogin
	for _, module := range modules {
		login := logins[module]
		if login == nil {
			if err := s.clear(ctx, user.ID, module); err != nil {
				return err
			}
			continue
		}
		at := verifiedAt(login, now)
		cred := accessservice.Credential{Name: string(s.providers[module])}
		if err := s.record(ctx, user.ID, module, cred, at, false); err != nil {
			return err
		}
		if earliest == nil || at.Before(verifiedAt(earliest, now)) {
			earliest = &IdentityLogin{Provider: s.providers[module], VerifiedAt: at}
		}
	}

	if !s.catalog.IsEnabled(models.ModuleIdentity) {
		return nil
	}
	if earliest == nil {
		return s.clear(ctx, user.ID, models.ModuleIdentity)
	}
	cred := accessservice.Credential{Name: string(earliest.Provider)}
	return s.record(ctx, user.ID, models.ModuleIdentity, cred, earliest.VerifiedAt, false)
}

func verifiedAt(login *IdentityLogin, now time.Time) time.Time {
	if login.VerifiedAt.IsZero() {
		return now
	}
	return login.VerifiedAt
}
