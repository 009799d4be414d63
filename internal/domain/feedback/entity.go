package feedback

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("invalid feedback")

// Feedback dari user
type Feedback struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository port
type Repository interface {
	Create(ctx context.Context, f *Feedback) (int64, error)
	List(ctx context.Context) ([]*Feedback, error)
}
