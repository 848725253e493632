package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"accessgate/internal/institution/models"
	"accessgate/internal/platform/postgres"
	id "accessgate/pkg/domain"
	"accessgate/pkg/platform/sentinel"
	txcontext "accessgate/pkg/platform/tx"
)

// PostgresStore persists institutions. Domain and address lists are stored
// as TEXT[] columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateInstitution(ctx context.Context, inst *models.Institution) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO institutions (id, short_name, display_name, bypass_credits_expiration, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(inst.ID), inst.ShortName, inst.DisplayName, inst.BypassCreditsExpiration, inst.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create institution: %w", postgres.MapError(err))
	}
	return nil
}

func (s *PostgresStore) GetInstitution(ctx context.Context, instID id.InstitutionID) (*models.Institution, error) {
	var (
		inst models.Institution
		raw  uuid.UUID
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, short_name, display_name, bypass_credits_expiration, created_at
		FROM institutions WHERE id = $1`, uuid.UUID(instID),
	).Scan(&raw, &inst.ShortName, &inst.DisplayName, &inst.BypassCreditsExpiration, &inst.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get institution: %w", err)
	}
	inst.ID = id.InstitutionID(raw)
	return &inst, nil
}

func (s *PostgresStore) DeleteInstitution(ctx context.Context, instID id.InstitutionID) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM institutions WHERE id = $1`, uuid.UUID(instID))
	if err != nil {
		return fmt.Errorf("delete institution: %w", postgres.MapError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete institution rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveRequirement(ctx context.Context, req *models.TierRequirement) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO institution_tier_requirements (institution_id, tier, kind, domains, addresses)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (institution_id, tier) DO UPDATE SET
			kind = EXCLUDED.kind,
			domains = EXCLUDED.domains,
			addresses = EXCLUDED.addresses`,
		uuid.UUID(req.InstitutionID), req.Tier, string(req.Kind), pq.Array(req.Domains), pq.Array(req.Addresses),
	)
	if err != nil {
		return fmt.Errorf("save requirement: %w", postgres.MapError(err))
	}
	return nil
}

func (s *PostgresStore) GetRequirement(ctx context.Context, instID id.InstitutionID, tier string) (*models.TierRequirement, error) {
	var (
		req  models.TierRequirement
		kind string
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT kind, domains, addresses
		FROM institution_tier_requirements
		WHERE institution_id = $1 AND tier = $2`, uuid.UUID(instID), tier,
	).Scan(&kind, pq.Array(&req.Domains), pq.Array(&req.Addresses))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get requirement: %w", err)
	}
	req.InstitutionID = instID
	req.Tier = tier
	req.Kind = models.RequirementKind(kind)
	return &req, nil
}

func (s *PostgresStore) SetAffiliation(ctx context.Context, aff *models.Affiliation) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO user_affiliations (user_id, institution_id, role, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			institution_id = EXCLUDED.institution_id,
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at`,
		uuid.UUID(aff.UserID), uuid.UUID(aff.InstitutionID), aff.Role, aff.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("set affiliation: %w", postgres.MapError(err))
	}
	return nil
}

func (s *PostgresStore) ListAffiliations(ctx context.Context, userID id.UserID) ([]models.Affiliation, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT institution_id, role, updated_at FROM user_affiliations WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list affiliations: %w", err)
	}
	defer rows.Close()

	var out []models.Affiliation
	for rows.Next() {
		var (
			aff  models.Affiliation
			inst uuid.UUID
		)
		if err := rows.Scan(&inst, &aff.Role, &aff.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan affiliation: %w", err)
		}
		aff.UserID = userID
		aff.InstitutionID = id.InstitutionID(inst)
		out = append(out, aff)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affiliations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountAffiliations(ctx context.Context, instID id.InstitutionID) (int, error) {
	var n int
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_affiliations WHERE institution_id = $1`, uuid.UUID(instID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count affiliations: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListAffiliatedUsers(ctx context.Context, instID id.InstitutionID) ([]id.UserID, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT user_id FROM user_affiliations WHERE institution_id = $1 ORDER BY user_id`, uuid.UUID(instID))
	if err != nil {
		return nil, fmt.Errorf("list affiliated users: %w", err)
	}
	defer rows.Close()

	var out []id.UserID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan affiliated user: %w", err)
		}
		out = append(out, id.UserID(userID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affiliated users: %w", err)
	}
	return out, nil
}
