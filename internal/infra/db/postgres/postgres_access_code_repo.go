package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.AccessCodeRepository = (*accessCodeRepo)(nil)

type accessCodeRepo struct {
	pool *pgxpool.Pool
}

func NewAccessCodeRepo(pool *pgxpool.Pool) repository.AccessCodeRepository {
	return &accessCodeRepo{pool: pool}
}

const accessCodeColumns = `code, status, kind, valid_days, expires_at, reserved_at, activated_by, activated_at, created_at`

func scanAccessCode(row pgx.Row) (*model.AccessCode, error) {
	var c model.AccessCode
	err := row.Scan(
		&c.Code, &c.Status, &c.Kind, &c.ValidDays, &c.ExpiresAt,
		&c.ReservedAt, &c.ActivatedBy, &c.ActivatedAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

// Save inserts a new code row. A plain INSERT: an existing row raises 23505
// instead of being overwritten, so a colliding draw gets redrawn by the caller
// and state changes stay on the conditional-update paths.
func (r *accessCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.AccessCode) error {
	const q = `
INSERT INTO access_codes (code, status, kind, valid_days, expires_at, reserved_at, activated_by, activated_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.Code, code.Status, code.Kind, code.ValidDays, code.ExpiresAt,
		code.ReservedAt, code.ActivatedBy, code.ActivatedAt, code.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 unique_violation: the code already exists.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByCode returns the row whatever its status. The redemption gate and
// conflict classification both need terminal states visible.
func (r *accessCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AccessCode, error) {
	const q = `SELECT ` + accessCodeColumns + ` FROM access_codes WHERE code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanAccessCode(row)
}

// ListAllocatable returns up to limit claim candidates: unused and not past
// expiry. The read is intentionally unlocked; the Reserve condition is what
// guarantees single-claim, not this snapshot.
func (r *accessCodeRepo) ListAllocatable(ctx context.Context, tx repository.Tx, limit int) ([]*model.AccessCode, error) {
	const q = `
SELECT ` + accessCodeColumns + `
  FROM access_codes
 WHERE status = 'unused'
   AND (expires_at IS NULL OR expires_at > now())
 LIMIT $1;
`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AccessCode
	for rows.Next() {
		c, err := scanAccessCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Reserve claims one code with a conditional update. The WHERE clause re-checks
// status and expiry at write time, so a stale candidate read cannot cause a
// double-claim; the affected-row count says who won.
func (r *accessCodeRepo) Reserve(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	const q = `
UPDATE access_codes
   SET status = 'reserved', reserved_at = now()
 WHERE code = $1
   AND status = 'unused'
   AND (expires_at IS NULL OR expires_at > now());
`
	ct, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Activate consumes a code at registration time. Accepts unused as well as
// reserved so manually shared links work without a prior allocator claim.
func (r *accessCodeRepo) Activate(ctx context.Context, tx repository.Tx, code, userID string) (bool, error) {
	const q = `
UPDATE access_codes
   SET status = 'active', activated_by = $2, activated_at = now()
 WHERE code = $1
   AND status IN ('unused', 'reserved')
   AND (expires_at IS NULL OR expires_at > now());
`
	ct, err := execSQL(ctx, r.pool, tx, q, code, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// MarkExpired retires one code. Same conditional-update shape as Reserve and
// Activate: a concurrently activated code is left untouched and the zero-row
// result tells the caller to classify.
func (r *accessCodeRepo) MarkExpired(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	const q = `
UPDATE access_codes
   SET status = 'expired'
 WHERE code = $1
   AND status IN ('unused', 'reserved');
`
	ct, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// ReleaseStale returns abandoned reservations to the pool.
func (r *accessCodeRepo) ReleaseStale(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	const q = `
UPDATE access_codes
   SET status = 'unused', reserved_at = NULL
 WHERE status = 'reserved'
   AND reserved_at < $1;
`
	ct, err := execSQL(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// ExpireOverdue retires codes past their expiry window.
func (r *accessCodeRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE access_codes
   SET status = 'expired'
 WHERE status IN ('unused', 'reserved')
   AND expires_at IS NOT NULL
   AND expires_at <= $1;
`
	ct, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *accessCodeRepo) List(ctx context.Context, tx repository.Tx, status model.CodeStatus, offset, limit int) ([]*model.AccessCode, error) {
	const base = `SELECT ` + accessCodeColumns + ` FROM access_codes`
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		rows, err = queryRows(ctx, r.pool, tx, base+` ORDER BY created_at DESC OFFSET $1 LIMIT $2;`, offset, limit)
	} else {
		rows, err = queryRows(ctx, r.pool, tx, base+` WHERE status = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`, status, offset, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AccessCode
	for rows.Next() {
		c, err := scanAccessCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
