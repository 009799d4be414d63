package media

import (
	"context"
	"io"
	"time"
)

// Repository port
type Repository interface {
	Create(ctx context.Context, v *Video) (int64, error)
	List(ctx context.Context) ([]*Video, error)
}

// Object is an opened stored file, seekable for range requests.
type Object interface {
	io.ReadSeekCloser
	ModTime() time.Time
}

// ObjectStore port (local disk atau MinIO)
type ObjectStore interface {
	PutFile(ctx context.Context, localPath, key string) error
	Open(ctx context.Context, key string) (Object, error)
	Remove(ctx context.Context, key string) error
}

// Prober reads video metadata and renders thumbnails.
type Prober interface {
	Duration(ctx context.Context, videoPath string) (float64, error)
	Thumbnail(ctx context.Context, videoPath, outPath string) error
}
