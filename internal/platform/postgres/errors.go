package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"accessgate/pkg/platform/sentinel"
)

const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// MapError translates constraint violations into store sentinels: a missing
// parent row is ErrNotFound and a duplicate key is ErrConflict. Other errors
// pass through unchanged.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %w", sentinel.ErrNotFound, err)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %w", sentinel.ErrConflict, err)
	}
	return err
}
