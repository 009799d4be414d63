package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/plans"
)

type PlanRepository struct {
	db *sql.DB
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, p *domain.Plan) (int64, error) {
	const q = `
INSERT INTO training_plans (user_id, date, project, target, note, completed, actualCount, created_at)
VALUES (?,?,?,?,?,?,?,?);
`
	res, err := r.db.ExecContext(ctx, q,
		p.UserID, p.Date, p.Project, p.Target, nullString(p.Note), p.Completed, p.ActualCount, p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const planColumns = `id, user_id, date, project, target, note, completed, actualCount, created_at`

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
	const q = `SELECT ` + planColumns + ` FROM training_plans WHERE user_id=? ORDER BY date DESC, id DESC;`
	rows, err := r.db.QueryContext(ctx, q, userID)
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
	const q = `SELECT ` + planColumns + ` FROM training_plans WHERE id=? AND user_id=? LIMIT 1;`
	p, err := scanPlan(r.db.QueryRowContext(ctx, q, id, userID))
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
		set.add("actualCount", *patch.ActualCount)
	}
	if len(set.cols) == 0 {
		return domain.ErrNoChanges
	}

	q := `UPDATE training_plans SET ` + set.clause() + ` WHERE id=? AND user_id=?;`
	res, err := r.db.ExecContext(ctx, q, append(set.args, id, userID)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, userID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, userID, id int64) error {
	const q = `DELETE FROM training_plans WHERE id=? AND user_id=?;`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TrainedDates returns distinct plan days, newest first.
func (r *PlanRepository) TrainedDates(ctx context.Context, userID int64, f domain.DateFilter) ([]time.Time, error) {
	q := `SELECT DISTINCT DATE(date) AS d FROM training_plans WHERE user_id=?`
	args := []any{userID}
	if f.Year > 0 {
		q += ` AND YEAR(date)=?`
		args = append(args, f.Year)
	}
	if f.Month > 0 {
		q += ` AND MONTH(date)=?`
		args = append(args, f.Month)
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
