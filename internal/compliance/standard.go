package compliance

import (
	"accessgate/internal/access/catalog"
	"accessgate/internal/access/models"
)

// SourceSet bundles one implementation of each external source. A nil source
// leaves its synchronizer unregistered.
type SourceSet struct {
	Training     TrainingCredentialSource
	Registration FederalRegistrationSource
	TwoFactor    TwoFactorSource
	Identity     IdentityLoginSource
}

// NewStandardRegistry registers a synchronizer per configured source. Each
// source gets its own retrier from newRetrier so rate limits and breakers stay
// per source.
func NewStandardRegistry(set SourceSet, writer ModuleWriter, reader ModuleReader, cat *catalog.Catalog, newRetrier func(models.EvaluatorKey) *Retrier, opts ...RegistryOption) *Registry {
	r := NewRegistry(opts...)
	if newRetrier == nil {
		newRetrier = func(models.EvaluatorKey) *Retrier { return nil }
	}
	if set.TwoFactor != nil {
		r.Register(NewTwoFactorSynchronizer(set.TwoFactor, writer, cat, newRetrier(models.EvaluatorTwoFactor)))
	}
	if set.Registration != nil {
		r.Register(NewFederalRegistrationSynchronizer(set.Registration, writer, reader, cat, newRetrier(models.EvaluatorFederalRegistration)))
	}
	if set.Training != nil {
		r.Register(NewTrainingSynchronizer(set.Training, writer, reader, cat, newRetrier(models.EvaluatorTrainingProvider)))
	}
	if set.Identity != nil {
		r.Register(NewIdentityLoginSynchronizer(set.Identity, writer, cat, newRetrier(models.EvaluatorIdentityLogin)))
	}
	return r
}
