package queue

import (
	"time"

	"github.com/pkg/errors"
)

// Order selects which end of the queue a processing cycle takes items from.
type Order int

const (
	// FIFO takes the oldest items first, preserving admission order for
	// items taken across non-overlapping single-concurrency cycles.
	FIFO Order = iota

	// LIFO takes the newest items first. Relative order within one
	// concurrently taken group is unspecified.
	LIFO
)

func (o Order) String() string {
	switch o {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	default:
		return "unknown"
	}
}

// Default configuration values used when New is given a nil Values pointer.
const (
	DefaultLimit       = 100
	DefaultConcurrency = 4
	DefaultInterval    = 100 * time.Millisecond
	DefaultTimeout     = 30 * time.Second
)

// Values holds the engine configuration.
type Values struct {
	// Limit is the maximum number of queued items. Admissions beyond it
	// fail with ErrCapacityExceeded. Must be positive.
	Limit int `json:"limit"`

	// Concurrency is the maximum number of items taken, and processed
	// simultaneously, per cycle. Must be positive.
	Concurrency int `json:"concurrency"`

	// Interval is the period between processing cycles. Zero means cycle
	// as fast as the scheduler allows (the tick is clamped to 1ms).
	// Must not be negative.
	Interval time.Duration `json:"interval"`

	// Timeout bounds each item's time in the queue and, separately, each
	// processing call. Must be positive.
	Timeout time.Duration `json:"timeout"`

	// Order is the take order, FIFO or LIFO.
	Order Order `json:"order"`
}

// Validate checks the values against their documented constraints.
func (v Values) Validate() error {
	if v.Limit <= 0 {
		return errors.New("queue: Limit must be positive")
	}
	if v.Concurrency <= 0 {
		return errors.New("queue: Concurrency must be positive")
	}
	if v.Interval < 0 {
		return errors.New("queue: Interval must not be negative")
	}
	if v.Timeout <= 0 {
		return errors.New("queue: Timeout must be positive")
	}
	if v.Order != FIFO && v.Order != LIFO {
		return errors.New("queue: Order must be FIFO or LIFO")
	}
	return nil
}
