// Package flowq provides two in-process admission engines for handing work
// to an externally supplied processing function.
//
// The batch engine (package batch) coalesces submitted values into groups
// and flushes a group when a size threshold is reached or a periodic
// interval elapses. The whole group succeeds or fails together, except for
// per-item failure markers reported by the processing function itself.
//
// The queue engine (package queue) processes submitted values individually
// under a bounded concurrency pool, with a per-item timeout and a selectable
// FIFO or LIFO take order. Items taken in the same cycle are isolated from
// each other: one item's failure never affects its siblings.
//
// Both engines enforce backpressure by rejecting admissions once a
// configured limit of queued items is reached, deliver each item's outcome
// through a single-assignment future (package future), and publish
// lifecycle events through an instance-owned emitter (package emitter).
// Package metrics exposes Prometheus collectors over either engine's
// statistics snapshot.
//
// Neither engine retries work or persists it anywhere: a rejected or failed
// item is the caller's to resubmit.
package flowq
