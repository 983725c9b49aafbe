package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/repository"
)

var _ repository.VocabRepository = (*vocabRepo)(nil)

type vocabRepo struct {
	pool *pgxpool.Pool
}

func NewVocabRepo(pool *pgxpool.Pool) repository.VocabRepository {
	return &vocabRepo{pool: pool}
}

// Upsert writes one (user, word) marking. Plain keyed upsert, no contention.
func (r *vocabRepo) Upsert(ctx context.Context, tx repository.Tx, entry *model.VocabEntry) error {
	const q = `
INSERT INTO vocab_entries (user_id, word, status, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, word) DO UPDATE SET
  status = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at;
`
	_, err := execSQL(ctx, r.pool, tx, q, entry.UserID, entry.Word, entry.Status, entry.UpdatedAt)
	return err
}

func (r *vocabRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, status model.VocabStatus) ([]*model.VocabEntry, error) {
	const base = `SELECT user_id, word, status, updated_at FROM vocab_entries WHERE user_id = $1`
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		rows, err = queryRows(ctx, r.pool, tx, base+` ORDER BY updated_at DESC;`, userID)
	} else {
		rows, err = queryRows(ctx, r.pool, tx, base+` AND status = $2 ORDER BY updated_at DESC;`, userID, status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.VocabEntry
	for rows.Next() {
		var e model.VocabEntry
		if err := rows.Scan(&e.UserID, &e.Word, &e.Status, &e.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
