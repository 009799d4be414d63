package media

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("media file not found")
	ErrInvalidInput = errors.New("invalid media upload")
)

// Video is an example video shown in the media library.
type Video struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Annotation string    `json:"annotation"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	Duration   float64   `json:"duration"`
	Thumbnail  string    `json:"thumbnail"`
	CreatedAt  time.Time `json:"created_at"`
}
