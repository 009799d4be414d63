package postgres

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/users"
)

type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	const q = `
INSERT INTO users (username, password, height, weight, role, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id;`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		u.Username, u.PasswordHash, nullFloat(u.Height), nullFloat(u.Weight), string(u.Role), u.CreatedAt).Scan(&id)
	if isDuplicate(err) {
		return 0, domain.ErrUsernameTaken
	}
	return id, err
}

const userColumns = `id, username, password, height, weight, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u    domain.User
		h, w sql.NullFloat64
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &h, &w, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Height, u.Weight, u.Role = floatPtr(h), floatPtr(w), domain.Role(role)
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return u, err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1;`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return u, err
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, id int64, upd domain.Update) error {
	var set setter
	if upd.Username != nil {
		set.add("username", *upd.Username)
	}
	if upd.PasswordHash != nil {
		set.add("password", *upd.PasswordHash)
	}
	if upd.Height != nil {
		set.add("height", *upd.Height)
	}
	if upd.Weight != nil {
		set.add("weight", *upd.Weight)
	}
	if len(set.cols) == 0 {
		return nil
	}

	q := `UPDATE users SET ` + set.clause() + ` WHERE id=` + set.next(1) + `;`
	res, err := r.db.ExecContext(ctx, q, append(set.args, id)...)
	if isDuplicate(err) {
		return domain.ErrUsernameTaken
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
