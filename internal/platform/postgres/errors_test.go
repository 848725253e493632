package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"accessgate/pkg/platform/sentinel"
)

func TestMapError(t *testing.T) {
	fk := &pgconn.PgError{Code: codeForeignKeyViolation}
	assert.ErrorIs(t, MapError(fk), sentinel.ErrNotFound)
	assert.ErrorIs(t, MapError(fk), fk)

	dup := &pgconn.PgError{Code: codeUniqueViolation}
	assert.ErrorIs(t, MapError(dup), sentinel.ErrConflict)

	other := errors.New("connection reset")
	assert.Same(t, other, MapError(other))
}
