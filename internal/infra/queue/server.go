package queue

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NewServer builds the asynq worker server for the analysis queue.
func NewServer(redis asynq.RedisConnOpt, queue string, concurrency int, log *zap.Logger) *asynq.Server {
	if queue == "" {
		queue = "default"
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      log.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})
}
