package compliance

import (
	"context"

	"accessgate/internal/access/catalog"
	"accessgate/internal/access/models"
	usermodels "accessgate/internal/users/models"
	"accessgate/pkg/requestcontext"
)

type TwoFactorSynchronizer struct {
	base
	source TwoFactorSource
}

func NewTwoFactorSynchronizer(source TwoFactorSource, writer ModuleWriter, cat *catalog.Catalog, retrier *Retrier) *TwoFactorSynchronizer {
	return &TwoFactorSynchronizer{
		base:   base{catalog: cat, writer: writer, retrier: retrier},
		source: source,
	}
}

func (s *TwoFactorSynchronizer) Key() models.EvaluatorKey {
	return models.EvaluatorTwoFactor
}

// Sync treats a nil enrollment or not_found as an absent identity.
func (s *TwoFactorSynchronizer) Sync(ctx context.Context, user *usermodels.User) error {
	if len(s.enabled(models.ModuleTwoFactorAuth)) == 0 {
		return nil
	}

	enrollment, err := Call(ctx, s.retrier, func(ctx context.Context) (*Enrollment, error) {
		return s.source.GetEnrollment(ctx, user.ID)
	})
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if enrollment == nil {
		return nil
	}
	if !enrollment.Enrolled {
		return s.clear(ctx, user.ID, models.ModuleTwoFactorAuth)
	}
	_, err = s.writer.MarkCompleted(ctx, user.ID, models.ModuleTwoFactorAuth, requestcontext.Now(ctx))
	return err
}
