package compliance

import (
	"context"

	"accessgate/internal/access/catalog"
	"accessgate/internal/access/models"
	accessservice "accessgate/internal/access/service"
	usermodels "accessgate/internal/users/models"
	"accessgate/pkg/requestcontext"
)

// Credential names issued by the training provider.
const (
	CredentialRegisteredTraining = "registered_tier_training"
	CredentialControlledTraining = "controlled_tier_training"
)

// TrainingSynchronizer syncs both training modules from the provider's
// credentials, picking each module's credential by name.
type TrainingSynchronizer struct {
	base
	source TrainingCredentialSource
	reader ModuleReader
	names  map[models.ModuleName]string
}

func NewTrainingSynchronizer(source TrainingCredentialSource, writer ModuleWriter, reader ModuleReader, cat *catalog.Catalog, retrier *Retrier) *TrainingSynchronizer {
	return &TrainingSynchronizer{
		base:   base{catalog: cat, writer: writer, retrier: retrier},
		source: source,
		reader: reader,
		names: map[models.ModuleName]string{
			models.ModuleComplianceTraining:   CredentialRegisteredTraining,
			models.ModuleCTComplianceTraining: CredentialControlledTraining,
		},
	}
}

func (s *TrainingSynchronizer) Key() models.EvaluatorKey {
	return models.EvaluatorTrainingProvider
}

type externalID struct {
	value string
	ok    bool
}

// Sync treats ok=false (or not_found) from the lookup as an absent identity
// and an empty id as an invalid one. A reissued credential restarts
// completion at now so an expired module becomes compliant again.
func (s *TrainingSynchronizer) Sync(ctx context.Context, user *usermodels.User) error {
	modules := s.enabled(models.ModuleComplianceTraining, models.ModuleCTComplianceTraining)
	if len(modules) == 0 {
		return nil
	}

	ext, err := Call(ctx, s.retrier, func(ctx context.Context) (externalID, error) {
		v, ok, err := s.source.LookupExternalID(ctx, user.ID)
		return externalID{value: v, ok: ok}, err
	})
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !ext.ok {
		return nil
	}

	creds := make(map[models.ModuleName]*TrainingCredential, len(modules))
	if ext.value != "" {
		for _, module := range modules {
			name := s.names[module]
			cred, err := Call(ctx, s.retrier, func(ctx context.Context) (*TrainingCredential, error) {
				return s.source.GetCredential(ctx, ext.value, name)
			})
			if err != nil && !IsNotFound(err) {
				return err
			}
			creds[module] = cred
		}
	}

	now := requestcontext.Now(ctx)
	for _, module := range modules {
		cred := creds[module]
		if cred == nil || expired(cred.ExpiresAt, now) {
			if err := s.clear(ctx, user.ID, module); err != nil {
				return err
			}
			continue
		}
		rec, err := current(ctx, s.reader, user.ID, module)
		if err != nil {
			return err
		}
		c := accessservice.Credential{Name: cred.Name, ExpiresAt: cred.ExpiresAt}
		if err := s.record(ctx, user.ID, module, c, now, reissued(rec, cred)); err != nil {
			return err
		}
	}
	return nil
}

// reissued reports whether cred is newer than the one completion was
// recorded against: issued after the stored completion, or carrying a
// different expiry than the stored credential.
func reissued(rec *models.UserAccessModule, cred *TrainingCredential) bool {
	if rec == nil || rec.CompletionTime == nil {
		return false
	}
	if cred.IssuedAt != nil && cred.IssuedAt.After(*rec.CompletionTime) {
		return true
	}
	return rec.CredentialName != "" && !sameInstant(rec.CredentialExpiresAt, cred.ExpiresAt)
}
