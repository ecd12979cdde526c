package queue

import (
	"math"
	"sync/atomic"
)

// Stats is a point-in-time snapshot of the engine. Obtain one with
// Engine.Stats.
type Stats struct {
	// QueueLength is the number of items currently queued.
	QueueLength int

	// Limit is the configured queue capacity.
	Limit int

	// Utilization is QueueLength as a percentage of Limit.
	Utilization float64

	// SuccessCount, ErrorCount, and TimeoutCount are monotonically
	// increasing outcome counters, resettable with ResetCounters.
	SuccessCount uint64
	ErrorCount   uint64
	TimeoutCount uint64

	// TotalProcessed is the sum of the three outcome counters.
	TotalProcessed uint64

	// SuccessRate and TimeoutRate are percentages of TotalProcessed.
	// Both are NaN while nothing has been processed.
	SuccessRate float64
	TimeoutRate float64

	// Cycling reports whether a processing cycle is in flight.
	Cycling bool

	// SchedulerActive reports whether the cycle scheduler is running.
	SchedulerActive bool

	// Paused and Initialized report the lifecycle flags.
	Paused      bool
	Initialized bool

	// Config holds the engine's configuration values.
	Config Values
}

// Stats returns a snapshot of queue occupancy, counters, and lifecycle
// flags.
func (e *Engine[T, R]) Stats() Stats {
	success := atomic.LoadUint64(&e.successCount)
	errs := atomic.LoadUint64(&e.errorCount)
	timeouts := atomic.LoadUint64(&e.timeoutCount)
	total := success + errs + timeouts

	e.mu.Lock()
	depth := len(e.queue)
	cycling := e.cycling
	active := e.stop != nil
	paused := e.paused
	initialized := e.initialized
	e.mu.Unlock()

	successRate := math.NaN()
	timeoutRate := math.NaN()
	if total > 0 {
		successRate = float64(success) / float64(total) * 100
		timeoutRate = float64(timeouts) / float64(total) * 100
	}

	return Stats{
		QueueLength:     depth,
		Limit:           e.cfg.Limit,
		Utilization:     float64(depth) / float64(e.cfg.Limit) * 100,
		SuccessCount:    success,
		ErrorCount:      errs,
		TimeoutCount:    timeouts,
		TotalProcessed:  total,
		SuccessRate:     successRate,
		TimeoutRate:     timeoutRate,
		Cycling:         cycling,
		SchedulerActive: active,
		Paused:          paused,
		Initialized:     initialized,
		Config:          e.cfg,
	}
}

// ResetCounters zeroes the outcome counters. Queue contents are untouched.
func (e *Engine[T, R]) ResetCounters() {
	atomic.StoreUint64(&e.successCount, 0)
	atomic.StoreUint64(&e.errorCount, 0)
	atomic.StoreUint64(&e.timeoutCount, 0)
}
