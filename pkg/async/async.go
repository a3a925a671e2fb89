package async

import (
	"context"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation completes and returns its result.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout waits for completion up to the given timeout, returning
// ErrTimeout if the computation is still running when it elapses.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports completion without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Go runs fn on its own goroutine and returns a Future for its result.
//
// The context passed in is the context the task runs with. For work
// dispatched from a tenant-scoped unit of work, pass tenant.Detach(ctx):
// the tenant key is copied onto a fresh context at dispatch time and is gone
// when the task's context dies, so it cannot bleed into other tasks sharing
// the scheduler.
func Go[U any](ctx context.Context, fn func(context.Context) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		// Pre-canceled contexts short-circuit without running fn.
		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.result, f.err = fn(ctx)
	}()

	return f
}

// WaitAll waits for every future and returns their results, stopping at the
// first error.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
