package history

import (
	"context"

	domain "github.com/bryanwahyu/pullup-coach/internal/domain/history"
)

// Service exposes committed evaluations.
type Service struct {
	Repo domain.Repository
}

func (s *Service) List(ctx context.Context, userID int64) ([]*domain.Record, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// Detail returns one record; records of other users are reported as not found.
func (s *Service) Detail(ctx context.Context, userID, id int64) (*domain.Record, error) {
	return s.Repo.Get(ctx, userID, id)
}

func (s *Service) All(ctx context.Context) ([]*domain.Record, error) {
	return s.Repo.ListAll(ctx)
}
