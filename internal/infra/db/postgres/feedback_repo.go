package postgres

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/feedback"
)

type FeedbackRepository struct{ db *sql.DB }

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository { return &FeedbackRepository{db: db} }

func (r *FeedbackRepository) Create(ctx context.Context, f *domain.Feedback) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO feedback (user_id, content, email, created_at) VALUES ($1,$2,$3,$4) RETURNING id;`,
		f.UserID, f.Content, nullString(f.Email), f.CreatedAt).Scan(&id)
	return id, err
}

func (r *FeedbackRepository) List(ctx context.Context) ([]*domain.Feedback, error) {
	const q = `
SELECT f.id, f.user_id, u.username, f.content, f.email, f.created_at
FROM feedback f JOIN users u ON u.id = f.user_id
ORDER BY f.created_at DESC, f.id DESC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Feedback
	for rows.Next() {
		var (
			f     domain.Feedback
			email sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.Username, &f.Content, &email, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Email = email.String
		out = append(out, &f)
	}
	return out, rows.Err()
}
