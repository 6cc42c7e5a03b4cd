package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mkarpenko/socialvault/internal/errs"
	"github.com/mkarpenko/socialvault/internal/model"
)

// IntegrationRepo implements IntegrationRepository using PostgreSQL.
type IntegrationRepo struct{ db *DB }

// NewIntegrationRepo constructs an integration repository.
func NewIntegrationRepo(db *DB) *IntegrationRepo { return &IntegrationRepo{db: db} }

// persistErr wraps storage collaborator failures so callers can retry with
// backoff without inspecting driver errors.
func persistErr(err error) error {
	return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
}

// Upsert inserts or replaces the record keyed on (user_id, platform_name).
func (r *IntegrationRepo) Upsert(ctx context.Context, rec *model.IntegrationRecord) (*model.IntegrationRecord, error) {
	const q = `
INSERT INTO integrations (id, user_id, platform_name, credentials, credentials_encrypted, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,now(),now())
ON CONFLICT (user_id, platform_name) DO UPDATE
SET credentials=EXCLUDED.credentials,
    credentials_encrypted=EXCLUDED.credentials_encrypted,
    status=EXCLUDED.status,
    updated_at=now()
RETURNING id, created_at, updated_at`

	out := *rec
	row := r.db.Pool.QueryRow(ctx, q,
		rec.ID, rec.UserID, string(rec.Platform), rec.Credentials, rec.CredentialsEncrypted, string(rec.Status))
	if err := row.Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, persistErr(err)
	}
	return &out, nil
}

// Get returns the record for (user_id, platform_name).
func (r *IntegrationRepo) Get(ctx context.Context, userID string, platform model.Platform) (*model.IntegrationRecord, error) {
	const q = `
SELECT id, user_id, platform_name, credentials, credentials_encrypted, status, created_at, updated_at
FROM integrations WHERE user_id=$1 AND platform_name=$2`

	rec, err := scanRecord(r.db.Pool.QueryRow(ctx, q, userID, string(platform)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, persistErr(err)
	}
	return rec, nil
}

// UpdateWithLock applies fn to the current record under SELECT ... FOR UPDATE
// and writes the result back in the same transaction.
func (r *IntegrationRepo) UpdateWithLock(
	ctx context.Context, userID string, platform model.Platform,
	fn func(rec *model.IntegrationRecord) error,
) (rec *model.IntegrationRecord, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, persistErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			rec, err = nil, persistErr(e)
		}
	}()

	const sel = `
SELECT id, user_id, platform_name, credentials, credentials_encrypted, status, created_at, updated_at
FROM integrations WHERE user_id=$1 AND platform_name=$2 FOR UPDATE`

	rec, scanErr := scanRecord(tx.QueryRow(ctx, sel, userID, string(platform)))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			err = errs.ErrNotFound
			return nil, err
		}
		err = persistErr(scanErr)
		return nil, err
	}

	if err = fn(rec); err != nil {
		return nil, err
	}

	const upd = `
UPDATE integrations
SET credentials=$3, credentials_encrypted=$4, status=$5, updated_at=now()
WHERE user_id=$1 AND platform_name=$2
RETURNING updated_at`

	if scanErr = tx.QueryRow(ctx, upd, userID, string(platform),
		rec.Credentials, rec.CredentialsEncrypted, string(rec.Status)).Scan(&rec.UpdatedAt); scanErr != nil {
		err = persistErr(scanErr)
		return nil, err
	}
	return rec, nil
}

// ListActive returns active records for the user restricted to the platform set.
func (r *IntegrationRepo) ListActive(ctx context.Context, userID string, platforms []model.Platform) ([]model.IntegrationRecord, error) {
	const q = `
SELECT id, user_id, platform_name, credentials, credentials_encrypted, status, created_at, updated_at
FROM integrations
WHERE user_id=$1 AND status='active' AND platform_name = ANY($2)
ORDER BY platform_name`

	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, string(p))
	}

	rows, err := r.db.Pool.Query(ctx, q, userID, names)
	if err != nil {
		return nil, persistErr(err)
	}
	defer rows.Close()

	var out []model.IntegrationRecord
	for rows.Next() {
		var rec model.IntegrationRecord
		var platformName, status string
		if err = rows.Scan(&rec.ID, &rec.UserID, &platformName, &rec.Credentials,
			&rec.CredentialsEncrypted, &status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, persistErr(err)
		}
		rec.Platform = model.Platform(platformName)
		rec.Status = model.Status(status)
		out = append(out, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, persistErr(err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*model.IntegrationRecord, error) {
	var rec model.IntegrationRecord
	var platformName, status string
	if err := row.Scan(&rec.ID, &rec.UserID, &platformName, &rec.Credentials,
		&rec.CredentialsEncrypted, &status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Platform = model.Platform(platformName)
	rec.Status = model.Status(status)
	return &rec, nil
}
