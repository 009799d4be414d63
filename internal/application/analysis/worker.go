package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
)

// Processor runs both analyzers for one job inside the worker process.
type Processor struct {
	Front         domain.FrontAnalyzer
	Side          domain.SideAnalyzer
	ProjectFormat string
	Log           *zap.Logger
}

// Process never returns partial success: if either view is unusable the
// outcome carries the footage failure message.
func (p *Processor) Process(ctx context.Context, job domain.Job) domain.Outcome {
	log := p.Log.With(zap.String("task_id", string(job.TaskID)))

	side, err := p.Side.AnalyzeSide(ctx, job.SidePath)
	if err != nil {
		log.Warn("side analysis failed", zap.Error(err))
	}
	if side == nil || strings.TrimSpace(side.Summary) == "" {
		return domain.Outcome{Error: domain.FootageUnusable}
	}

	front, err := p.Front.AnalyzeFront(ctx, job.FrontPath)
	if err != nil {
		log.Warn("front analysis failed", zap.Error(err))
	}
	if front == nil || strings.TrimSpace(front.Summary) == "" {
		return domain.Outcome{Error: domain.FootageUnusable}
	}

	format := p.ProjectFormat
	if format == "" {
		format = "pull-ups × %d"
	}
	log.Info("analysis finished", zap.Int("reps", front.Reps))
	return domain.Outcome{
		Result:  strings.TrimSpace(front.Summary) + "\n" + strings.TrimSpace(side.Summary),
		Project: fmt.Sprintf(format, front.Reps),
	}
}
