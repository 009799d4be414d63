package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
)

func TestProcessorProcess(t *testing.T) {
	job := domain.Job{TaskID: "t", FrontPath: "f.mp4", SidePath: "s.mp4"}

	tests := []struct {
		name  string
		front fakeFront
		side  fakeSide
		want  domain.Outcome
	}{
		{
			name:  "both usable",
			front: fakeFront{report: &domain.FrontReport{Summary: "握距合适", Reps: 8}},
			side:  fakeSide{report: &domain.SideReport{Summary: "身体摆动小"}},
			want:  domain.Outcome{Result: "握距合适\n身体摆动小", Project: "pull-ups × 8"},
		},
		{
			name:  "front unusable",
			front: fakeFront{},
			side:  fakeSide{report: &domain.SideReport{Summary: "ok"}},
			want:  domain.Outcome{Error: domain.FootageUnusable},
		},
		{
			name:  "side unusable",
			front: fakeFront{report: &domain.FrontReport{Summary: "ok", Reps: 3}},
			side:  fakeSide{},
			want:  domain.Outcome{Error: domain.FootageUnusable},
		},
		{
			name:  "analyzer error",
			front: fakeFront{err: errors.New("exit status 1")},
			side:  fakeSide{report: &domain.SideReport{Summary: "ok"}},
			want:  domain.Outcome{Error: domain.FootageUnusable},
		},
		{
			name:  "blank summary",
			front: fakeFront{report: &domain.FrontReport{Summary: "  ", Reps: 3}},
			side:  fakeSide{report: &domain.SideReport{Summary: "ok"}},
			want:  domain.Outcome{Error: domain.FootageUnusable},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Processor{Front: tt.front, Side: tt.side, Log: zap.NewNop()}
			got := p.Process(context.Background(), job)
			assert.Equal(t, tt.want, got)
			if tt.want.Error != "" {
				assert.True(t, got.Failed())
			}
		})
	}
}

func TestProcessorProjectFormat(t *testing.T) {
	p := &Processor{
		Front:         fakeFront{report: &domain.FrontReport{Summary: "a", Reps: 12}},
		Side:          fakeSide{report: &domain.SideReport{Summary: "b"}},
		ProjectFormat: "引体向上%d个",
		Log:           zap.NewNop(),
	}
	assert.Equal(t, "引体向上12个", p.Process(context.Background(), domain.Job{}).Project)
}
