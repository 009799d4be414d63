package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/plans"
)

type PlanRepository struct{ db *sql.DB }

func NewPlanRepository(db *sql.DB) *PlanRepository { return &PlanRepository{db: db} }

func (r *PlanRepository) Create(ctx context.Context, p *domain.Plan) (int64, error) {
	const q = `
INSERT INTO training_plans (user_id, date, project, target, note, completed, actual_count, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id;`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		p.UserID, p.Date, p.Project, p.Target, nullString(p.Note), p.Completed, p.ActualCount, p.CreatedAt).Scan(&id)
	return id, err
}

const planColumns = `id, user_id, date, project, target, note, completed, actual_count, created_at`

func scanPlan(row interface{ Scan(...any) error }) (*domain.Plan, error) {
	var (
		p    domain.Plan
		note sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Date, &p.Project, &p.Target, &note, &p.Completed, &p.ActualCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Note = note.String
	return &p, nil
}

func (r *PlanRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM training_plans WHERE user_id=$1 ORDER BY date DESC, id DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PlanRepository) Get(ctx context.Context, userID, id int64) (*domain.Plan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM training_plans WHERE id=$1 AND user_id=$2;`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *PlanRepository) Update(ctx context.Context, userID, id int64, patch domain.Patch) error {
	var set setter
	if patch.Target != nil {
		set.add("target", *patch.Target)
	}
	if patch.Note != nil {
		set.add("note", *patch.Note)
	}
	if patch.Completed != nil {
		set.add("completed", *patch.Completed)
	}
	if patch.ActualCount != nil {
		set.add("actual_count", *patch.ActualCount)
	}
	if len(set.cols) == 0 {
		return domain.ErrNoChanges
	}

	q := fmt.Sprintf(`UPDATE training_plans SET %s WHERE id=%s AND user_id=%s;`, set.clause(), set.next(1), set.next(2))
	res, err := r.db.ExecContext(ctx, q, append(set.args, id, userID)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM training_plans WHERE id=$1 AND user_id=$2;`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PlanRepository) TrainedDates(ctx context.Context, userID int64, f domain.DateFilter) ([]time.Time, error) {
	q := `SELECT DISTINCT date::date AS d FROM training_plans WHERE user_id=$1`
	args := []any{userID}
	if f.Year > 0 {
		args = append(args, f.Year)
		q += fmt.Sprintf(` AND EXTRACT(YEAR FROM date)=$%d`, len(args))
	}
	if f.Month > 0 {
		args = append(args, f.Month)
		q += fmt.Sprintf(` AND EXTRACT(MONTH FROM date)=$%d`, len(args))
	}
	q += ` ORDER BY d DESC;`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
