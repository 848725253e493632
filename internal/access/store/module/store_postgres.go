package module

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"accessgate/internal/access/models"
	"accessgate/internal/platform/postgres"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
	txcontext "accessgate/pkg/platform/tx"
)

// PostgresStore persists per-user module state. Pure I/O: satisfaction and
// status derivation belong to the models and service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const moduleColumns = `user_id, module, status, completion_time, bypass_time, first_enabled_at,
	last_updated_at, credential_name, credential_expires_at, version`

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID, module models.ModuleName) (*models.UserAccessModule, error) {
	query := `SELECT ` + moduleColumns + ` FROM user_access_modules WHERE user_id = $1 AND module = $2`
	rec, err := scanModule(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID), string(module)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get user module: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.UserAccessModule, error) {
	query := `SELECT ` + moduleColumns + ` FROM user_access_modules WHERE user_id = $1 ORDER BY module`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list user modules: %w", err)
	}
	defer rows.Close()

	var out []*models.UserAccessModule
	for rows.Next() {
		rec, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user module: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user modules: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, m *models.UserAccessModule) error {
	exec := txcontext.Executor(ctx, s.db)
	var (
		res sql.Result
		err error
	)
	if m.Version == 0 {
		res, err = exec.ExecContext(ctx, `
			INSERT INTO user_access_modules (`+moduleColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
			ON CONFLICT (user_id, module) DO NOTHING`,
			uuid.UUID(m.UserID), string(m.Module), string(m.Status), m.CompletionTime, m.BypassTime,
			m.FirstEnabledAt, m.LastUpdatedAt, nullString(m.CredentialName), m.CredentialExpiresAt,
		)
	} else {
		res, err = exec.ExecContext(ctx, `
			UPDATE user_access_modules
			SET status = $3, completion_time = $4, bypass_time = $5, first_enabled_at = $6,
				last_updated_at = $7, credential_name = $8, credential_expires_at = $9,
				version = version + 1
			WHERE user_id = $1 AND module = $2 AND version = $10`,
			uuid.UUID(m.UserID), string(m.Module), string(m.Status), m.CompletionTime, m.BypassTime,
			m.FirstEnabledAt, m.LastUpdatedAt, nullString(m.CredentialName), m.CredentialExpiresAt, m.Version,
		)
	}
	if err != nil {
		return fmt.Errorf("save user module: %w", postgres.MapError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save user module rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save user module: %w", sentinel.ErrConflict)
	}
	m.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModule(row rowScanner) (*models.UserAccessModule, error) {
	var (
		rec        models.UserAccessModule
		userID     uuid.UUID
		module     string
		status     string
		completion sql.NullTime
		bypass     sql.NullTime
		firstOn    sql.NullTime
		credName   sql.NullString
		credExp    sql.NullTime
	)
	if err := row.Scan(&userID, &module, &status, &completion, &bypass, &firstOn,
		&rec.LastUpdatedAt, &credName, &credExp, &rec.Version); err != nil {
		return nil, err
	}
	rec.UserID = id.UserID(userID)
	rec.Module = models.ModuleName(module)
	rec.Status = models.Status(status)
	rec.CompletionTime = timePtr(completion)
	rec.BypassTime = timePtr(bypass)
	rec.FirstEnabledAt = timePtr(firstOn)
	rec.CredentialName = credName.String
	rec.CredentialExpiresAt = timePtr(credExp)
	return &rec, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
