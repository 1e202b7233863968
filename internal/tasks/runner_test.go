package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubmittedTasksRun(t *testing.T) {
	r := NewRunner(2, 8, testLogger())
	defer r.Shutdown(context.Background())

	var counter atomic.Int32
	for i := 0; i < 10; i++ {
		r.Submit("count", func() error {
			counter.Add(1)
			return nil
		})
	}
	r.Wait()

	if got := counter.Load(); got != 10 {
		t.Errorf("tasks run = %d, want 10", got)
	}
}

func TestWaitCoversTasksSubmittedFromTasks(t *testing.T) {
	r := NewRunner(2, 8, testLogger())
	defer r.Shutdown(context.Background())

	var inner atomic.Bool
	outer := make(chan struct{})
	r.Submit("outer", func() error {
		r.Submit("inner", func() error {
			inner.Store(true)
			return nil
		})
		close(outer)
		return nil
	})

	<-outer
	r.Wait()
	if !inner.Load() {
		t.Errorf("inner task did not finish before Wait returned")
	}
}

func TestPanickingTaskDoesNotKillWorkers(t *testing.T) {
	r := NewRunner(1, 8, testLogger())
	defer r.Shutdown(context.Background())

	r.Submit("boom", func() error {
		panic("boom")
	})
	r.Wait()

	done := make(chan struct{})
	r.Submit("after", func() error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not pick up a task after a panic")
	}
}

func TestFailingTaskDoesNotBlockOthers(t *testing.T) {
	r := NewRunner(1, 8, testLogger())
	defer r.Shutdown(context.Background())

	var ran atomic.Bool
	r.Submit("fails", func() error {
		return errors.New("expected failure")
	})
	r.Submit("runs", func() error {
		ran.Store(true)
		return nil
	})
	r.Wait()

	if !ran.Load() {
		t.Errorf("task after a failing one did not run")
	}
}

func TestFullQueueNeverBlocksSubmit(t *testing.T) {
	r := NewRunner(1, 1, testLogger())
	defer r.Shutdown(context.Background())

	// hold the single worker so the queue fills up
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	r.Submit("block", func() error {
		started.Done()
		<-release
		return nil
	})
	started.Wait()

	var counter atomic.Int32
	submitted := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			r.Submit("overflow", func() error {
				counter.Add(1)
				return nil
			})
		}
		close(submitted)
	}()

	select {
	case <-submitted:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	close(release)
	r.Wait()
	if got := counter.Load(); got != 20 {
		t.Errorf("overflow tasks run = %d, want 20", got)
	}
}

func TestShutdownDrainsAndDropsLaterSubmits(t *testing.T) {
	r := NewRunner(2, 8, testLogger())

	var counter atomic.Int32
	for i := 0; i < 5; i++ {
		r.Submit("drain", func() error {
			counter.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := counter.Load(); got != 5 {
		t.Errorf("tasks drained = %d, want 5", got)
	}

	r.Submit("late", func() error {
		counter.Add(1)
		return nil
	})
	r.Wait()
	if got := counter.Load(); got != 5 {
		t.Errorf("task ran after shutdown, counter = %d", got)
	}

	// a second shutdown is a no-op
	if err := r.Shutdown(context.Background()); err != nil {
		t.Errorf("repeated Shutdown: %v", err)
	}
}
