// Package tasks provides a small background task runner: fire-and-forget
// submission onto a fixed worker pool, with panics recovered and errors
// logged instead of silently swallowed.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type job struct {
	name string
	fn   func() error
}

// Runner executes submitted tasks on a fixed pool of workers.
type Runner struct {
	jobs    chan job
	wg      sync.WaitGroup // workers
	pending sync.WaitGroup // submitted but unfinished jobs
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewRunner starts a runner with the given number of workers and queue size.
func NewRunner(workers, queueSize int, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	r := &Runner{
		jobs:   make(chan job, queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

func (r *Runner) work() {
	defer r.wg.Done()
	for j := range r.jobs {
		r.run(j)
	}
}

func (r *Runner) run(j job) {
	defer r.pending.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("task panicked", "task", j.name, "panic", fmt.Sprint(rec))
		}
	}()
	if err := j.fn(); err != nil {
		r.logger.Error("task failed", "task", j.name, "error", err)
	}
}

// Submit schedules fn for execution and returns without waiting for it.
// When the queue is full the task runs on its own goroutine so callers are
// never blocked. Submitting after Shutdown drops the task with a log entry.
func (r *Runner) Submit(name string, fn func() error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("task dropped, runner is shut down", "task", name)
		return
	}
	r.pending.Add(1)
	r.mu.Unlock()

	j := job{name: name, fn: fn}
	select {
	case r.jobs <- j:
	default:
		go r.run(j)
	}
}

// Wait blocks until every submitted task has finished. Intended for tests
// and shutdown paths that need deterministic completion.
func (r *Runner) Wait() {
	r.pending.Wait()
}

// Shutdown drains outstanding tasks and stops the workers. The context bounds
// how long the drain may take.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(r.jobs)
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
