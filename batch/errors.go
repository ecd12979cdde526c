package batch

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrCapacityExceeded is returned by Submit when the queue already
	// holds Limit items.
	ErrCapacityExceeded = errors.New("batch: queue capacity exceeded")

	// ErrTimedOut rejects every item taken by a flush whose deadline
	// elapsed before the processing function returned.
	ErrTimedOut = errors.New("batch: flush timed out")

	// ErrCleared rejects items discarded by Clear without processing.
	ErrCleared = errors.New("batch: item cleared before processing")
)

// ResultCountError is a protocol violation: the processing function
// returned a result slice whose length differs from the number of values
// it was given. The whole flush is treated as failed.
type ResultCountError struct {
	Expected int
	Actual   int
}

func (e *ResultCountError) Error() string {
	return fmt.Sprintf("batch: processing function returned %d results for %d values", e.Actual, e.Expected)
}

// FuncError wraps an error returned by the processing function itself.
// Every item taken by the failing flush is rejected with it.
type FuncError struct {
	Err error
}

func (e *FuncError) Error() string {
	return fmt.Sprintf("batch: processing function failed: %v", e.Err)
}

func (e *FuncError) Unwrap() error {
	return e.Err
}
