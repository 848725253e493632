package tier

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

// PostgresStore persists materialized tier status.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const tierColumns = `user_id, tier, status, first_enabled_at, last_updated_at, version`

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID, tier string) (*models.UserAccessTier, error) {
	query := `SELECT ` + tierColumns + ` FROM user_access_tiers WHERE user_id = $1 AND tier = $2`
	rec, err := scanTier(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID), tier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get user tier: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.UserAccessTier, error) {
	query := `SELECT ` + tierColumns + ` FROM user_access_tiers WHERE user_id = $1 ORDER BY tier`
	return s.list(ctx, "list user tiers", query, uuid.UUID(userID))
}

func (s *PostgresStore) ListChangedSince(ctx context.Context, since time.Time, limit int) ([]*models.UserAccessTier, error) {
	query := `SELECT ` + tierColumns + ` FROM user_access_tiers
		WHERE last_updated_at > $1
		ORDER BY last_updated_at, user_id, tier
		LIMIT $2`
	return s.list(ctx, "list changed tiers", query, since, limit)
}

func (s *PostgresStore) Save(ctx context.Context, t *models.UserAccessTier) error {
	exec := txcontext.Executor(ctx, s.db)
	var (
		res sql.Result
		err error
	)
	if t.Version == 0 {
		res, err = exec.ExecContext(ctx, `
			INSERT INTO user_access_tiers (`+tierColumns+`)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (user_id, tier) DO NOTHING`,
			uuid.UUID(t.UserID), t.Tier, string(t.Status), t.FirstEnabledAt, t.LastUpdatedAt,
		)
	} else {
		res, err = exec.ExecContext(ctx, `
			UPDATE user_access_tiers
			SET status = $3, first_enabled_at = $4, last_updated_at = $5, version = version + 1
			WHERE user_id = $1 AND tier = $2 AND version = $6`,
			uuid.UUID(t.UserID), t.Tier, string(t.Status), t.FirstEnabledAt, t.LastUpdatedAt, t.Version,
		)
	}
	if err != nil {
		return fmt.Errorf("save user tier: %w", postgres.MapError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save user tier rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save user tier: %w", sentinel.ErrConflict)
	}
	t.Version++
	return nil
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.UserAccessTier, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.UserAccessTier
	for rows.Next() {
		rec, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s iterate: %w", op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTier(row rowScanner) (*models.UserAccessTier, error) {
	var (
		rec     models.UserAccessTier
		userID  uuid.UUID
		status  string
		firstOn sql.NullTime
	)
	if err := row.Scan(&userID, &rec.Tier, &status, &firstOn, &rec.LastUpdatedAt, &rec.Version); err != nil {
		return nil, err
	}
	rec.UserID = id.UserID(userID)
	rec.Status = models.Status(status)
	if firstOn.Valid {
		t := firstOn.Time
		rec.FirstEnabledAt = &t
	}
	return &rec, nil
}
