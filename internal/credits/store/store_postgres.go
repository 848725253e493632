package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"accessgate/internal/credits/models"
	"accessgate/internal/platform/postgres"
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

const creditColumns = `user_id, credit_start_time, expiration_time, extension_count, extended_at, bypassed,
	notification_status, version`

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.InitialCredits, error) {
	query := `SELECT ` + creditColumns + ` FROM user_initial_credits WHERE user_id = $1`
	rec, err := scanCredits(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get initial credits: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *models.InitialCredits) error {
	exec := txcontext.Executor(ctx, s.db)
	var (
		res sql.Result
		err error
	)
	if c.Version == 0 {
		res, err = exec.ExecContext(ctx, `
			INSERT INTO user_initial_credits (`+creditColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
			ON CONFLICT (user_id) DO NOTHING`,
			uuid.UUID(c.UserID), c.CreditStartTime, c.ExpirationTime, c.ExtensionCount, c.ExtendedAt,
			c.Bypassed, string(c.NotificationStatus),
		)
	} else {
		res, err = exec.ExecContext(ctx, `
			UPDATE user_initial_credits
			SET credit_start_time = $2, expiration_time = $3, extension_count = $4, extended_at = $5,
				bypassed = $6, notification_status = $7, version = version + 1
			WHERE user_id = $1 AND version = $8`,
			uuid.UUID(c.UserID), c.CreditStartTime, c.ExpirationTime, c.ExtensionCount, c.ExtendedAt,
			c.Bypassed, string(c.NotificationStatus), c.Version,
		)
	}
	if err != nil {
		return fmt.Errorf("save initial credits: %w", postgres.MapError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save initial credits rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save initial credits: %w", sentinel.ErrConflict)
	}
	c.Version++
	return nil
}

func (s *PostgresStore) ListDue(ctx context.Context, cutoff time.Time, limit int) ([]*models.InitialCredits, error) {
	query := `SELECT ` + creditColumns + ` FROM user_initial_credits
		WHERE bypassed = FALSE AND notification_status <> $1 AND expiration_time <= $2
		ORDER BY expiration_time, user_id`
	args := []any{string(models.NotificationExpired), cutoff}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list due initial credits: %w", err)
	}
	defer rows.Close()

	var out []*models.InitialCredits
	for rows.Next() {
		rec, err := scanCredits(rows)
		if err != nil {
			return nil, fmt.Errorf("scan initial credits: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate initial credits: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredits(row rowScanner) (*models.InitialCredits, error) {
	var (
		rec      models.InitialCredits
		userID   uuid.UUID
		extended sql.NullTime
		status   string
	)
	if err := row.Scan(&userID, &rec.CreditStartTime, &rec.ExpirationTime, &rec.ExtensionCount, &extended,
		&rec.Bypassed, &status, &rec.Version); err != nil {
		return nil, err
	}
	rec.UserID = id.UserID(userID)
	rec.NotificationStatus = models.NotificationStatus(status)
	if extended.Valid {
		t := extended.Time
		rec.ExtendedAt = &t
	}
	return &rec, nil
}
