package analysis

import (
	"context"
	"io"
)

// TaskStore port (Task State Store + per-user pointers)
type TaskStore interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id TaskID) (*Task, error)
	SetJobHandle(ctx context.Context, id TaskID, handle string) error
	// Complete dan Fail hanya berlaku selama task masih pending/processing
	Complete(ctx context.Context, id TaskID, result, project string) (bool, error)
	Fail(ctx context.Context, id TaskID, reason string) (bool, error)
	Delete(ctx context.Context, id TaskID) error

	SetUserTask(ctx context.Context, uid int64, id TaskID) error
	UserTask(ctx context.Context, uid int64) (TaskID, error)
	ClearUserTask(ctx context.Context, uid int64) error
}

// JobQueue port (Async Job Queue)
type JobQueue interface {
	Enqueue(ctx context.Context, job Job) (string, error)
	Inspect(ctx context.Context, handle string) (JobOutcome, error)
}

// VideoStore port (penyimpanan file video upload)
type VideoStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, name string) error
}

// FrontAnalyzer returns nil when the footage is unusable.
type FrontAnalyzer interface {
	AnalyzeFront(ctx context.Context, videoPath string) (*FrontReport, error)
}

// SideAnalyzer returns nil when the footage is unusable.
type SideAnalyzer interface {
	AnalyzeSide(ctx context.Context, videoPath string) (*SideReport, error)
}
