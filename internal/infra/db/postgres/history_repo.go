package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/history"
)

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

func (r *HistoryRepository) Commit(ctx context.Context, userID int64, score int, content, project string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var ratingID, id int64
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO ratings (score, content) VALUES ($1,$2) RETURNING id;`, score, content).Scan(&ratingID); err != nil {
		return 0, fmt.Errorf("insert rating: %w", err)
	}
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO history_records (user_id, rating_id, project) VALUES ($1,$2,$3) RETURNING id;`,
		userID, ratingID, project).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return id, tx.Commit()
}

const historySelect = `
SELECT h.id, h.user_id, u.username, h.rating_id, h.project,
       r.id, r.score, r.content, r.created_at
FROM history_records h
JOIN ratings r ON r.id = h.rating_id
JOIN users u ON u.id = h.user_id
`

func scanRecord(row interface{ Scan(...any) error }) (*domain.Record, error) {
	var (
		rec   domain.Record
		score float64
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Username, &rec.RatingID, &rec.Project,
		&rec.Rating.ID, &score, &rec.Rating.Content, &rec.Rating.CreatedAt); err != nil {
		return nil, err
	}
	rec.Rating.Score = int(math.Round(score))
	return &rec, nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Record, error) {
	return r.list(ctx, historySelect+`WHERE h.user_id=$1 ORDER BY r.created_at DESC, h.id DESC;`, userID)
}

func (r *HistoryRepository) ListAll(ctx context.Context) ([]*domain.Record, error) {
	return r.list(ctx, historySelect+`ORDER BY r.created_at DESC, h.id DESC;`)
}

func (r *HistoryRepository) Get(ctx context.Context, userID, id int64) (*domain.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, historySelect+`WHERE h.id=$1 AND h.user_id=$2;`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

func (r *HistoryRepository) list(ctx context.Context, q string, args ...any) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
