// Package future provides a single-assignment result container. A Future is
// settled exactly once, by Resolve or Reject, and may be awaited any number
// of times by any number of goroutines.
package future

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Future holds the eventual outcome of one unit of work. Create one with
// New. The zero value is not usable.
type Future[R any] struct {
	done chan struct{}
	once sync.Once

	// value and err are written exactly once, before done is closed, and
	// never mutated afterwards. Readers must wait on done first.
	value R
	err   error
}

// New returns an unsettled Future.
func New[R any]() *Future[R] {
	return &Future[R]{
		done: make(chan struct{}),
	}
}

// Resolve settles the future with a value. It reports whether this call
// performed the settlement; it returns false if the future was already
// settled, in which case the value is discarded.
func (f *Future[R]) Resolve(value R) bool {
	settled := false
	f.once.Do(func() {
		f.value = value
		close(f.done)
		settled = true
	})
	return settled
}

// Reject settles the future with an error. It reports whether this call
// performed the settlement. Rejecting with a nil error is treated as a
// rejection with an unspecified failure.
func (f *Future[R]) Reject(err error) bool {
	if err == nil {
		err = errors.New("future: rejected with nil error")
	}
	settled := false
	f.once.Do(func() {
		f.err = err
		close(f.done)
		settled = true
	})
	return settled
}

// Done returns a channel that is closed once the future is settled.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has been resolved or rejected.
func (f *Future[R]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future settles or ctx is canceled. Cancellation
// returns the zero value and ctx.Err() without settling the future.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// WaitOr blocks until the future settles or ctx is canceled, returning
// fallback instead of an error in either failure case.
func (f *Future[R]) WaitOr(ctx context.Context, fallback R) R {
	v, err := f.Wait(ctx)
	if err != nil {
		return fallback
	}
	return v
}

// WaitTimeout blocks until the future settles or d elapses. On timeout the
// returned error carries msg, so callers can label which wait gave up.
func (f *Future[R]) WaitTimeout(d time.Duration, msg string) (R, error) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-t.C:
		var zero R
		return zero, errors.New(msg)
	}
}
