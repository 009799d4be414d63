package users

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence user)
type Repository interface {
	Create(ctx context.Context, u *User) (int64, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id int64, upd Update) error
}

// LoginRepository stores login history.
type LoginRepository interface {
	Record(ctx context.Context, userID int64, at time.Time) error
	ListByUser(ctx context.Context, userID int64) ([]*LoginRecord, error)
	ListAll(ctx context.Context) ([]*LoginRecord, error)
}
