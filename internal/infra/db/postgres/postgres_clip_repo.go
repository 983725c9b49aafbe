package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/repository"
)

var _ repository.ClipRepository = (*clipRepo)(nil)

type clipRepo struct {
	pool *pgxpool.Pool
}

func NewClipRepo(pool *pgxpool.Pool) repository.ClipRepository {
	return &clipRepo{pool: pool}
}

const clipColumns = `id, title, stream_uid, duration_seconds, subtitle_en_url, subtitle_zh_url, created_at`

func scanClip(row pgx.Row) (*model.Clip, error) {
	var c model.Clip
	err := row.Scan(&c.ID, &c.Title, &c.StreamUID, &c.DurationSeconds, &c.SubtitleENURL, &c.SubtitleZHURL, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

func (r *clipRepo) Save(ctx context.Context, tx repository.Tx, clip *model.Clip) error {
	const q = `
INSERT INTO clips (id, title, stream_uid, duration_seconds, subtitle_en_url, subtitle_zh_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  stream_uid = EXCLUDED.stream_uid,
  duration_seconds = EXCLUDED.duration_seconds,
  subtitle_en_url = EXCLUDED.subtitle_en_url,
  subtitle_zh_url = EXCLUDED.subtitle_zh_url;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		clip.ID, clip.Title, clip.StreamUID, clip.DurationSeconds, clip.SubtitleENURL, clip.SubtitleZHURL, clip.CreatedAt,
	)
	return err
}

func (r *clipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Clip, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+clipColumns+` FROM clips WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanClip(row)
}

func (r *clipRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Clip, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+clipColumns+` FROM clips ORDER BY created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
