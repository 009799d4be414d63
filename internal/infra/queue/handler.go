package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
)

// JobProcessor runs one analysis job to an outcome.
type JobProcessor interface {
	Process(ctx context.Context, job analysis.Job) analysis.Outcome
}

// Handler consumes analysis tasks inside the worker process.
type Handler struct {
	Processor JobProcessor
	Log       *zap.Logger
}

// ProcessTask stores the outcome as the asynq task result. A footage
// failure is still a completed task; only unreadable payloads and
// panics end up archived.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) (err error) {
	job, err := decodeJob(t.Payload())
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	log := h.Log.With(zap.String("task_id", string(job.TaskID)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("analysis panicked", zap.Any("panic", r))
			err = fmt.Errorf("analysis panicked: %v: %w", r, asynq.SkipRetry)
		}
	}()

	log.Info("analysis started", zap.Int64("user_id", job.UserID))
	out := h.Processor.Process(ctx, job)

	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	// ResultWriter hanya ada saat dijalankan oleh asynq server
	if w := t.ResultWriter(); w != nil {
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("write outcome: %w", err)
		}
	}
	if out.Failed() {
		log.Warn("analysis finished with error", zap.String("error", out.Error))
	}
	return nil
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeAnalyzePullup, h)
}
