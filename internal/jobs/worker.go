package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

// Job is a unit of background work. It must return once ctx is done.
type Job func(ctx context.Context) error

// Worker runs long ledger operations off the request path: queued jobs such
// as benefit distribution, cancellable jobs such as a conversion run, and
// periodic housekeeping.
type Worker struct {
	ctx      context.Context
	stop     context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup

	queue chan Job
	slots chan struct{}
	log   *slog.Logger

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// WorkerStats is a snapshot of the worker. CompletedJobs counts every
// finished job and FailedJobs the subset that returned an error or panicked.
type WorkerStats struct {
	ActiveJobs    int   `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewWorker starts n queue consumers. Cancellable jobs get their own
// goroutines, at most max(2n, 2) at a time.
func NewWorker(n int) *Worker {
	ctx, stop := context.WithCancel(context.Background())
	w := &Worker{
		ctx:   ctx,
		stop:  stop,
		queue: make(chan Job, 32),
		slots: make(chan struct{}, max(2*n, 2)),
		log:   logger.With("worker"),
	}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("queue-%d", i)
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.consume(name)
		}()
	}
	return w
}

// Enqueue hands job to a queue consumer. When the queue is full the job
// runs on the caller's goroutine instead of being dropped.
func (w *Worker) Enqueue(job Job) {
	select {
	case w.queue <- job:
	default:
		w.log.Warn("Queue full, running job inline")
		w.run(w.ctx, "inline", job)
	}
}

// EnqueueCancellable starts job in its own goroutine. The returned function
// cancels it; Shutdown does too. A job cancelled while waiting for a slot
// still runs once so it can see ctx and record its outcome.
func (w *Worker) EnqueueCancellable(name string, job Job) context.CancelFunc {
	ctx, cancel := context.WithCancel(w.ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()

		select {
		case w.slots <- struct{}{}:
			defer func() { <-w.slots }()
		case <-ctx.Done():
		}
		w.run(ctx, name, job)
	}()
	return cancel
}

// ScheduleEvery runs job every interval until Shutdown. The first run
// happens one interval after scheduling.
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run(w.ctx, name, job)
			}
		}
	}()
}

// Shutdown cancels every running job and waits for all of them to return.
// Calling it more than once is safe.
func (w *Worker) Shutdown() {
	w.stopOnce.Do(func() {
		w.stop()
		w.wg.Wait()
	})
}

// GetStats returns a snapshot of the job counters
func (w *Worker) GetStats() WorkerStats {
	return WorkerStats{
		ActiveJobs:    int(w.active.Load()),
		CompletedJobs: w.completed.Load(),
		FailedJobs:    w.failed.Load(),
		QueueLength:   len(w.queue),
		MaxConcurrent: cap(w.slots),
	}
}

func (w *Worker) consume(name string) {
	for {
		select {
		case <-w.ctx.Done():
			return
		case job := <-w.queue:
			w.run(w.ctx, name, job)
		}
	}
}

func (w *Worker) run(ctx context.Context, name string, job Job) {
	w.active.Add(1)
	began := time.Now()
	err := w.call(ctx, job)
	w.active.Add(-1)
	w.completed.Add(1)

	if err != nil {
		w.failed.Add(1)
		w.log.Error("Job failed", "job", name, "error", err)
		return
	}
	w.log.Info("Job finished", "job", name, "elapsed", time.Since(began))
}

// call turns a panic into an error so one bad job cannot stop a consumer
func (w *Worker) call(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job(ctx)
}
