// Package queue provides an engine that processes individually submitted
// values under a bounded concurrency pool. Each scheduler tick takes up to
// Concurrency items, from the head of the queue under FIFO ordering or the
// tail under LIFO, and processes them concurrently and independently: one
// item's failure or timeout never affects the others taken in the same
// cycle. That per-item isolation is the defining difference from the batch
// engine's all-or-nothing group failure.
//
// Every item carries its own timeout, covering both the time it may wait in
// the queue and the time its processing call may take. Either deadline
// elapsing rejects the item's future with ErrTimedOut exactly once.
package queue
