package mysql

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/users"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	const q = `
INSERT INTO users (username, password, height, weight, role, created_at)
VALUES (?,?,?,?,?,?);
`
	res, err := r.db.ExecContext(ctx, q,
		u.Username, u.PasswordHash, nullFloat(u.Height), nullFloat(u.Weight), string(u.Role), u.CreatedAt)
	if isDuplicate(err) {
		return 0, domain.ErrUsernameTaken
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
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
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=? LIMIT 1;`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return u, err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username=? LIMIT 1;`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return u, err
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY id;`
	rows, err := r.db.QueryContext(ctx, q)
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

	q := `UPDATE users SET ` + set.clause() + ` WHERE id=?;`
	res, err := r.db.ExecContext(ctx, q, append(set.args, id)...)
	if isDuplicate(err) {
		return domain.ErrUsernameTaken
	}
	if err != nil {
		return err
	}
	// MySQL tidak menghitung baris yang nilainya sama, cek keberadaan manual
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
