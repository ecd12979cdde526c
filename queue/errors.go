package queue

import "github.com/pkg/errors"

var (
	// ErrCapacityExceeded is returned by Submit when the queue already
	// holds Limit items.
	ErrCapacityExceeded = errors.New("queue: capacity exceeded")

	// ErrAlreadyInitialized is returned by Init when the scheduler is
	// already running.
	ErrAlreadyInitialized = errors.New("queue: already initialized")

	// ErrTimedOut rejects an item whose queue wait or processing call
	// exceeded the configured timeout.
	ErrTimedOut = errors.New("queue: item timed out")

	// ErrCleared rejects items discarded by Clear or Destroy without
	// processing.
	ErrCleared = errors.New("queue: item cleared before processing")

	// ErrDestroyed is returned by Submit and Init after Destroy.
	ErrDestroyed = errors.New("queue: engine destroyed")
)
