package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
)

// Options controls how analysis jobs are enqueued.
type Options struct {
	Queue      string
	JobTimeout time.Duration
	Retention  time.Duration
	Log        *zap.Logger
}

// JobFailed is shown when a job died without producing an outcome.
const JobFailed = "analysis failed, please upload the videos again"

// Client is the asynq-backed analysis.JobQueue used by the API process.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	opts      Options
}

func NewClient(redis asynq.RedisConnOpt, opts Options) *Client {
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Client{
		client:    asynq.NewClient(redis),
		inspector: asynq.NewInspector(redis),
		opts:      opts,
	}
}

// Enqueue submits the job once; failed jobs are never retried.
// The task id doubles as the job handle.
func (c *Client) Enqueue(ctx context.Context, job analysis.Job) (string, error) {
	opts := []asynq.Option{
		asynq.TaskID(string(job.TaskID)),
		asynq.Queue(c.opts.Queue),
		asynq.MaxRetry(0),
	}
	if c.opts.JobTimeout > 0 {
		opts = append(opts, asynq.Timeout(c.opts.JobTimeout))
	}
	if c.opts.Retention > 0 {
		opts = append(opts, asynq.Retention(c.opts.Retention))
	}
	task, err := NewAnalyzeTask(job, opts...)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue analysis %s: %w", job.TaskID, err)
	}
	return info.ID, nil
}

// Inspect reports the queue-side state of a job handle.
// A handle the queue no longer knows about is treated as still running;
// the task record expires on its own.
func (c *Client) Inspect(_ context.Context, handle string) (analysis.JobOutcome, error) {
	info, err := c.inspector.GetTaskInfo(c.opts.Queue, handle)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return analysis.JobOutcome{State: analysis.JobRunning}, nil
	}
	if err != nil {
		return analysis.JobOutcome{}, fmt.Errorf("inspect job %s: %w", handle, err)
	}
	if info.State == asynq.TaskStateArchived && info.LastErr != "" {
		c.opts.Log.Warn("analysis job archived",
			zap.String("job", handle),
			zap.String("last_err", info.LastErr))
	}
	return outcomeOf(info), nil
}

func outcomeOf(info *asynq.TaskInfo) analysis.JobOutcome {
	switch info.State {
	case asynq.TaskStateCompleted:
		var out analysis.Outcome
		if err := json.Unmarshal(info.Result, &out); err != nil {
			return analysis.JobOutcome{State: analysis.JobFailed, Outcome: analysis.Outcome{Error: "unreadable job result"}}
		}
		if out.Failed() {
			return analysis.JobOutcome{State: analysis.JobFailed, Outcome: out}
		}
		return analysis.JobOutcome{State: analysis.JobSucceeded, Outcome: out}
	case asynq.TaskStateArchived:
		var out analysis.Outcome
		if len(info.Result) > 0 {
			_ = json.Unmarshal(info.Result, &out)
		}
		if out.Error == "" {
			out.Error = archivedReason(info.LastErr)
		}
		return analysis.JobOutcome{State: analysis.JobFailed, Outcome: analysis.Outcome{Error: out.Error}}
	default:
		return analysis.JobOutcome{State: analysis.JobRunning}
	}
}

// archivedReason turns asynq's raw LastErr into a message for the user.
// A job killed by its deadline ran out of time on the footage.
func archivedReason(lastErr string) string {
	if strings.Contains(lastErr, context.DeadlineExceeded.Error()) || strings.Contains(lastErr, context.Canceled.Error()) {
		return analysis.FootageUnusable
	}
	return JobFailed
}

func (c *Client) Close() error {
	ierr := c.inspector.Close()
	if err := c.client.Close(); err != nil {
		return err
	}
	return ierr
}
