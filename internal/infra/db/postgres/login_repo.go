package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/users"
)

type LoginRepository struct{ db *sql.DB }

func NewLoginRepository(db *sql.DB) *LoginRepository { return &LoginRepository{db: db} }

func (r *LoginRepository) Record(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO login_records (user_id, login_time) VALUES ($1,$2);`, userID, at)
	return err
}

const loginSelect = `
SELECT l.id, l.user_id, u.username, l.login_time
FROM login_records l JOIN users u ON u.id = l.user_id
`

func (r *LoginRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.LoginRecord, error) {
	return r.query(ctx, loginSelect+`WHERE l.user_id=$1 ORDER BY l.login_time DESC;`, userID)
}

func (r *LoginRepository) ListAll(ctx context.Context) ([]*domain.LoginRecord, error) {
	return r.query(ctx, loginSelect+`ORDER BY l.login_time DESC;`)
}

func (r *LoginRepository) query(ctx context.Context, q string, args ...any) ([]*domain.LoginRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.LoginRecord
	for rows.Next() {
		var l domain.LoginRecord
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &l.LoginTime); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
