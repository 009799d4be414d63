package history

import "context"

// Repository port. Commit inserts the rating and the history row in one transaction.
type Repository interface {
	Commit(ctx context.Context, userID int64, score int, content, project string) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]*Record, error)
	Get(ctx context.Context, userID, id int64) (*Record, error)
	ListAll(ctx context.Context) ([]*Record, error)
}
