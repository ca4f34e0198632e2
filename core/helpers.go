package orchestration

import (
	"context"
	"fmt"
	"time"
)

type workerRun func(context.Context) error

func panicSafeNamedWorker(name string, run func(context.Context) error) workerRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if err = run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}

		return nil
	}
}

// task is a cancellable background worker owned by one call.
type task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func startTask(parent context.Context, name string, run func(context.Context) error) *task {
	ctx, cancel := context.WithCancel(parent)
	t := &task{name: name, cancel: cancel, done: make(chan struct{})}
	worker := panicSafeNamedWorker(name, run)
	go func() {
		defer close(t.done)
		t.err = worker(ctx)
	}()
	return t
}

// stop cancels the task and waits up to timeout for it to return. A nil task
// counts as stopped.
func (t *task) stop(timeout time.Duration) error {
	if t == nil {
		return nil
	}

	t.cancel()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%s did not stop within %s", t.name, timeout)
	}
}
