package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
)

// TypeAnalyzePullup is the asynq task type for one submitted analysis.
const TypeAnalyzePullup = "analysis:pullup"

// NewAnalyzeTask encodes a job as an asynq task.
func NewAnalyzeTask(job analysis.Job, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}
	return asynq.NewTask(TypeAnalyzePullup, payload, opts...), nil
}

func decodeJob(payload []byte) (analysis.Job, error) {
	var job analysis.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return job, fmt.Errorf("decode job: %w", err)
	}
	if job.TaskID == "" || job.FrontPath == "" || job.SidePath == "" {
		return job, fmt.Errorf("decode job: incomplete payload")
	}
	return job, nil
}
