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

// FederalRegistrationSynchronizer syncs the eRA Commons link. A changed
// username or link expiry means the link was re-established, so completion
// restarts at now.
type FederalRegistrationSynchronizer struct {
	base
	source FederalRegistrationSource
	reader ModuleReader
}

func NewFederalRegistrationSynchronizer(source FederalRegistrationSource, writer ModuleWriter, reader ModuleReader, cat *catalog.Catalog, retrier *Retrier) *FederalRegistrationSynchronizer {
	return &FederalRegistrationSynchronizer{
		base:   base{catalog: cat, writer: writer, retrier: retrier},
		source: source,
		reader: reader,
	}
}

func (s *FederalRegistrationSynchronizer) Key() models.EvaluatorKey {
	return models.EvaluatorFederalRegistration
}

// Sync clears on a nil status, a not_found answer, an empty username or an
// expired link.
func (s *FederalRegistrationSynchronizer) Sync(ctx context.Context, user *usermodels.User) error {
	if len(s.enabled(models.ModuleEraCommons)) == 0 {
		return nil
	}

	status, err := Call(ctx, s.retrier, func(ctx context.Context) (*LinkStatus, error) {
		return s.source.GetLinkStatus(ctx, user.ID)
	})
	if err != nil && !IsNotFound(err) {
		return err
	}

	now := requestcontext.Now(ctx)
	if status == nil || status.LinkedUsername == "" || expired(status.LinkExpiresAt, now) {
		return s.clear(ctx, user.ID, models.ModuleEraCommons)
	}

	rec, err := current(ctx, s.reader, user.ID, models.ModuleEraCommons)
	if err != nil {
		return err
	}
	reset := rec != nil && rec.CredentialName != "" &&
		(rec.CredentialName != status.LinkedUsername || !sameInstant(rec.CredentialExpiresAt, status.LinkExpiresAt))

	cred := accessservice.Credential{Name: status.LinkedUsername, ExpiresAt: status.LinkExpiresAt}
	return s.record(ctx, user.ID, models.ModuleEraCommons, cred, now, reset)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
