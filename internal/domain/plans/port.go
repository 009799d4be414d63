package plans

import (
	"context"
	"time"
)

// Repository port. Update and Delete are scoped to the owning user.
type Repository interface {
	Create(ctx context.Context, p *Plan) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]*Plan, error)
	Get(ctx context.Context, userID, id int64) (*Plan, error)
	Update(ctx context.Context, userID, id int64, patch Patch) error
	Delete(ctx context.Context, userID, id int64) error
	TrainedDates(ctx context.Context, userID int64, f DateFilter) ([]time.Time, error)
}
