package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"accessgate/internal/platform/postgres"
	"accessgate/internal/users/models"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
	txcontext "accessgate/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, contact_email, disabled, service_account, ducc_signed_version, ducc_signed_at,
	created_at, updated_at, version`

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)`,
		uuid.UUID(u.ID), u.ContactEmail, u.Disabled, u.ServiceAccount, u.DUCCSignedVersion, u.DUCCSignedAt,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", postgres.MapError(err))
	}
	u.Version = 1
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Save(ctx context.Context, u *models.User) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE users
		SET contact_email = $2, disabled = $3, service_account = $4, ducc_signed_version = $5,
			ducc_signed_at = $6, updated_at = $7, version = version + 1
		WHERE id = $1 AND version = $8`,
		uuid.UUID(u.ID), u.ContactEmail, u.Disabled, u.ServiceAccount, u.DUCCSignedVersion, u.DUCCSignedAt,
		u.UpdatedAt, u.Version,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save user rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save user: %w", sentinel.ErrConflict)
	}
	u.Version++
	return nil
}

func (s *PostgresStore) ListIDs(ctx context.Context, since *time.Time) ([]id.UserID, error) {
	query := `SELECT id FROM users ORDER BY id`
	args := []any{}
	if since != nil {
		query = `SELECT id FROM users WHERE updated_at > $1 ORDER BY id`
		args = append(args, *since)
	}
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []id.UserID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id.UserID(u))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u        models.User
		userID   uuid.UUID
		version  sql.NullInt64
		signedAt sql.NullTime
	)
	if err := row.Scan(&userID, &u.ContactEmail, &u.Disabled, &u.ServiceAccount, &version, &signedAt,
		&u.CreatedAt, &u.UpdatedAt, &u.Version); err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	if version.Valid {
		v := int(version.Int64)
		u.DUCCSignedVersion = &v
	}
	if signedAt.Valid {
		t := signedAt.Time
		u.DUCCSignedAt = &t
	}
	return &u, nil
}
