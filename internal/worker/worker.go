package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"freshkeeper/internal/queue"
	"freshkeeper/internal/scanner"
	"freshkeeper/internal/sweeper"
)

// Worker executes the scheduled jobs off the request-handling path. Each
// handler is its own failure boundary: a failed cycle is logged and
// swallowed so the next scheduled trigger still fires.
type Worker struct {
	server  *asynq.Server
	scanner *scanner.Scanner
	sweeper *sweeper.Sweeper
}

func New(scn *scanner.Scanner, swp *sweeper.Sweeper) *Worker {
	server := asynq.NewServer(
		queue.RedisOpt(),
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queue.TaskExpirationScan: 1,
				queue.TaskRetentionSweep: 1,
			},
		},
	)

	return &Worker{
		server:  server,
		scanner: scn,
		sweeper: swp,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskExpirationScan, w.handleExpirationScan)
	mux.HandleFunc(queue.TaskRetentionSweep, w.handleRetentionSweep)

	slog.Info("Starting worker",
		"queues", []string{queue.TaskExpirationScan, queue.TaskRetentionSweep})

	if err := w.server.Start(mux); err != nil {
		return err
	}

	slog.Info("Worker started successfully")

	<-ctx.Done()

	w.server.Stop()
	slog.Info("Worker stopped")
	return nil
}

// handleExpirationScan runs one scan cycle. Errors are logged and not
// returned: a failed cycle must never be retried by the queue, the next
// hourly trigger supersedes it.
func (w *Worker) handleExpirationScan(ctx context.Context, _ *asynq.Task) error {
	if err := w.scanner.Run(ctx); err != nil {
		slog.Error("expiration scan cycle failed", "error", err)
	}
	return nil
}

func (w *Worker) handleRetentionSweep(ctx context.Context, _ *asynq.Task) error {
	if err := w.sweeper.Run(ctx); err != nil {
		slog.Error("retention sweep failed", "error", err)
	}
	return nil
}
