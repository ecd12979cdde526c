// Package batch provides an engine that coalesces individually submitted
// values into groups and hands each group to an externally supplied
// processing function. A flush is triggered when the queue reaches the
// configured batch size or when the periodic interval elapses, whichever
// comes first.
//
// Each submission returns a future that settles with that value's outcome.
// The group fails as a whole when the processing function returns an error,
// when it returns the wrong number of results, or when the flush deadline
// elapses; per-item failures inside an otherwise successful group are
// reported through Result failure markers.
//
// See package queue for the per-item counterpart with bounded concurrency.
package batch
