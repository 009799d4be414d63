package history

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("history record not found")

// Rating is a persisted score + narrative.
type Rating struct {
	ID        int64     `json:"id"`
	Score     int       `json:"score"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Record links a rating to a user and the analysed project.
type Record struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	RatingID int64  `json:"rating_id"`
	Project  string `json:"project"`
	Rating   Rating `json:"rating"`
}
