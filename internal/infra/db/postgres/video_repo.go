package postgres

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/media"
)

type VideoRepository struct{ db *sql.DB }

func NewVideoRepository(db *sql.DB) *VideoRepository { return &VideoRepository{db: db} }

func (r *VideoRepository) Create(ctx context.Context, v *domain.Video) (int64, error) {
	const q = `
INSERT INTO video_records (name, annotation, size, url, duration, thumbnail, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id;`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		v.Name, nullString(v.Annotation), v.Size, v.URL, v.Duration, v.Thumbnail, v.CreatedAt).Scan(&id)
	return id, err
}

func (r *VideoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	const q = `
SELECT id, name, annotation, size, url, duration, thumbnail, created_at
FROM video_records ORDER BY created_at DESC, id DESC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Video
	for rows.Next() {
		var (
			v          domain.Video
			annotation sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.Name, &annotation, &v.Size, &v.URL, &v.Duration, &v.Thumbnail, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Annotation = annotation.String
		out = append(out, &v)
	}
	return out, rows.Err()
}
