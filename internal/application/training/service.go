package training

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/pullup-coach/internal/application"
	domain "github.com/bryanwahyu/pullup-coach/internal/domain/plans"
)

// Service implements training-plan use-cases, always scoped to one user.
type Service struct {
	Plans domain.Repository
	Clock application.Clock
	Log   *zap.Logger
}

type CreateCommand struct {
	Date    string `json:"date"`
	Project string `json:"project"`
	Target  int    `json:"target"`
	Note    string `json:"note"`
}

func (s *Service) Create(ctx context.Context, userID int64, cmd CreateCommand) (*domain.Plan, error) {
	date, err := ParseDate(cmd.Date)
	if err != nil {
		return nil, err
	}
	project := strings.TrimSpace(cmd.Project)
	if project == "" {
		return nil, fmt.Errorf("%w: project is required", domain.ErrInvalidInput)
	}
	if cmd.Target < 0 {
		return nil, fmt.Errorf("%w: target must not be negative", domain.ErrInvalidInput)
	}

	p := &domain.Plan{
		UserID:    userID,
		Date:      date,
		Project:   project,
		Target:    cmd.Target,
		Note:      cmd.Note,
		CreatedAt: s.Clock.Now(),
	}
	id, err := s.Plans.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]*domain.Plan, error) {
	return s.Plans.ListByUser(ctx, userID)
}

// Update applies patch to a plan owned by userID and returns the new state.
func (s *Service) Update(ctx context.Context, userID, id int64, patch domain.Patch) (*domain.Plan, error) {
	if patch.Empty() {
		return nil, domain.ErrNoChanges
	}
	if (patch.Target != nil && *patch.Target < 0) || (patch.ActualCount != nil && *patch.ActualCount < 0) {
		return nil, fmt.Errorf("%w: counts must not be negative", domain.ErrInvalidInput)
	}
	if err := s.Plans.Update(ctx, userID, id, patch); err != nil {
		return nil, err
	}
	return s.Plans.Get(ctx, userID, id)
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.Plans.Delete(ctx, userID, id)
}

// TrainedDates lists plan dates, newest first, optionally within a year/month.
func (s *Service) TrainedDates(ctx context.Context, userID int64, f domain.DateFilter) ([]string, error) {
	if f.Month != 0 && (f.Month < 1 || f.Month > 12) {
		return nil, fmt.Errorf("%w: month must be 1-12", domain.ErrInvalidInput)
	}
	if f.Year < 0 {
		return nil, fmt.Errorf("%w: invalid year", domain.ErrInvalidInput)
	}
	dates, err := s.Plans.TrainedDates(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(domain.DateLayout))
	}
	return out, nil
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(domain.DateLayout) {
		raw = raw[:len(domain.DateLayout)]
	}
	d, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return d, nil
}
