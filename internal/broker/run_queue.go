package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tanjoen/forenaide/internal/entity"
)

// RunQueue is a channel-backed Queue that dispatches runs to a Handler.
// One run is in flight per worker; per-file concurrency lives inside the
// orchestrator, not here.
type RunQueue struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan entity.RunDescriptor
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*RunQueue)

func WithWorkers(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *RunQueue) {
		if n > 0 {
			q.ch = make(chan entity.RunDescriptor, n)
		}
	}
}

func WithRunTimeout(d time.Duration) Option {
	return func(q *RunQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewRunQueue(handler Handler, logger *slog.Logger, opts ...Option) *RunQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &RunQueue{
		handler: handler,
		logger:  logger,
		workers: 1,
		timeout: 10 * time.Minute,
		ch:      make(chan entity.RunDescriptor, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *RunQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("broker.worker.started", "worker_id", workerID)

				for desc := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.handler.ProcessRun(ctx, desc)
					cancel()

					// Always acknowledged: the outcome lives on the run row.
					if err != nil {
						q.logger.Error("broker.run.failed", "worker_id", workerID, "run_id", desc.RunID, "error", err)
					} else {
						q.logger.Info("broker.run.processed", "worker_id", workerID, "run_id", desc.RunID)
					}
				}

				q.logger.Info("broker.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *RunQueue) Enqueue(_ context.Context, desc entity.RunDescriptor) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("broker.enqueue.rejected", "run_id", desc.RunID)
		return nil
	}
	select {
	case q.ch <- desc:
		q.logger.Info("broker.enqueue.ok", "run_id", desc.RunID, "files", len(desc.Files))
	default:
		q.logger.Warn("broker.enqueue.backpressure", "run_id", desc.RunID)
		q.ch <- desc
	}
	return nil
}

func (q *RunQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("broker.shutdown.interrupted")
	case <-done:
		q.logger.Info("broker.shutdown.complete")
	}
}
