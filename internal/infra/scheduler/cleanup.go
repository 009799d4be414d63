package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper removes stored files older than a retention window.
type Sweeper interface {
	Sweep(now time.Time, olderThan time.Duration) (int, error)
}

// parser menerima format 5 atau 6 field dan descriptor seperti @hourly
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a cron expression before it is registered.
func ValidateSchedule(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// CleanupJob returns the cron job that sweeps upload files.
func CleanupJob(store Sweeper, retention time.Duration, log *zap.Logger, now func() time.Time) func() {
	if now == nil {
		now = time.Now
	}
	return func() {
		n, err := store.Sweep(now(), retention)
		if err != nil {
			log.Warn("upload cleanup failed", zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("upload cleanup finished", zap.Int("removed", n), zap.Duration("retention", retention))
		}
	}
}

// Start registers the cleanup job on schedule and starts the scheduler.
// Stop the returned cron to end it.
func Start(schedule string, job func(), log *zap.Logger) (*cron.Cron, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cronLogger{log})))
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, fmt.Errorf("schedule cleanup: %w", err)
	}
	c.Start()
	log.Info("upload cleanup scheduled", zap.String("schedule", schedule))
	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
