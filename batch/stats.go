package batch

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

	// SuccessCount and ErrorCount are monotonically increasing outcome
	// counters, resettable with ResetCounters.
	SuccessCount uint64
	ErrorCount   uint64

	// TotalProcessed is SuccessCount + ErrorCount.
	TotalProcessed uint64

	// SuccessRate is the percentage of processed items that succeeded.
	// It is NaN while nothing has been processed.
	SuccessRate float64

	// Flushing reports whether a flush is in flight.
	Flushing bool

	// SchedulerActive reports whether the periodic scheduler is running.
	SchedulerActive bool

	// Config holds the configuration values in effect at snapshot time.
	Config Values
}

// Stats returns a snapshot of queue occupancy, counters, and lifecycle
// flags.
func (e *Engine[T, R]) Stats() Stats {
	cfg := fixValues(e.config.Get())
	success := atomic.LoadUint64(&e.successCount)
	errs := atomic.LoadUint64(&e.errorCount)
	total := success + errs

	e.mu.Lock()
	depth := len(e.queue)
	flushing := e.flushing
	active := e.stop != nil
	e.mu.Unlock()

	rate := math.NaN()
	if total > 0 {
		rate = float64(success) / float64(total) * 100
	}

	return Stats{
		QueueLength:     depth,
		Limit:           cfg.Limit,
		Utilization:     float64(depth) / float64(cfg.Limit) * 100,
		SuccessCount:    success,
		ErrorCount:      errs,
		TotalProcessed:  total,
		SuccessRate:     rate,
		Flushing:        flushing,
		SchedulerActive: active,
		Config:          cfg,
	}
}

// ResetCounters zeroes the success and error counters. Queue contents are
// untouched.
func (e *Engine[T, R]) ResetCounters() {
	atomic.StoreUint64(&e.successCount, 0)
	atomic.StoreUint64(&e.errorCount, 0)
}
