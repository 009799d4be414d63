package analysis

import (
	"time"
)

// TaskID tipe untuk AnalysisTask
type TaskID string

// Status enum
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Open reports whether the task can still be reconciled.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusProcessing
}

// Task is one unit of asynchronous video analysis.
type Task struct {
	ID          TaskID     `json:"task_id"`
	Status      Status     `json:"status"`
	UserID      int64      `json:"user_id"`
	JobID       string     `json:"job_id,omitempty"`
	Result      string     `json:"result,omitempty"`
	Project     string     `json:"project,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// OwnedBy reports whether uid owns the task.
func (t *Task) OwnedBy(uid int64) bool {
	return t != nil && t.UserID == uid
}

// Job adalah payload yang dikirim ke worker
type Job struct {
	TaskID    TaskID `json:"task_id"`
	FrontPath string `json:"front_path"`
	SidePath  string `json:"side_path"`
	UserID    int64  `json:"user_id"`
}

// JobState is the queue-side view of a submitted job.
type JobState int

const (
	JobRunning JobState = iota
	JobSucceeded
	JobFailed
)

// Outcome is what a worker produces for one job.
type Outcome struct {
	Result  string `json:"result,omitempty"`
	Project string `json:"project,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the outcome carries a processing failure.
func (o Outcome) Failed() bool {
	return o.Error != ""
}

// JobOutcome is returned when inspecting a job handle.
type JobOutcome struct {
	State   JobState
	Outcome Outcome
}

// FrontReport is the front-view analyzer output.
type FrontReport struct {
	Summary string `json:"summary"`
	Reps    int    `json:"reps"`
}

// SideReport is the side-view analyzer output.
type SideReport struct {
	Summary string `json:"summary"`
}

// View is what a poll returns to the caller.
type View struct {
	TaskID  TaskID `json:"task_id"`
	Status  Status `json:"status"`
	Result  string `json:"result,omitempty"`
	Project string `json:"project,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ViewOf shapes a task for the status endpoint.
func ViewOf(t *Task) View {
	v := View{TaskID: t.ID, Status: t.Status}
	switch t.Status {
	case StatusCompleted:
		v.Result = t.Result
		v.Project = t.Project
	case StatusError:
		v.Error = t.Error
	default:
		v.Status = StatusProcessing
		v.Message = "analysis in progress"
	}
	return v
}
