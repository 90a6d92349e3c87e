package queue

import (
	"os"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskExpirationScan triggers one expiration scan cycle.
	TaskExpirationScan = "pantry:expiration_scan"
	// TaskRetentionSweep triggers one notification retention sweep.
	TaskRetentionSweep = "notification:retention_sweep"
)

// RedisOpt builds the asynq Redis connection options from REDIS_ADDR.
func RedisOpt() asynq.RedisClientOpt {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	return asynq.RedisClientOpt{Addr: redisAddr}
}

// NewScheduler returns an asynq scheduler with the two periodic jobs
// registered: the expiration scan every hour, the retention sweep weekly.
// Each trigger only enqueues a task; execution and its failure boundary
// live in the worker.
func NewScheduler() (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(), &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	if _, err := scheduler.Register("@every 1h",
		asynq.NewTask(TaskExpirationScan, nil),
		asynq.Queue(TaskExpirationScan),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
	); err != nil {
		return nil, err
	}

	if _, err := scheduler.Register("0 4 * * 1",
		asynq.NewTask(TaskRetentionSweep, nil),
		asynq.Queue(TaskRetentionSweep),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
	); err != nil {
		return nil, err
	}

	return scheduler, nil
}
