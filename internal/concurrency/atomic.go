// Package concurrency provides the primitives NenDB's facade is built on:
// atomic counters and id generators, a reader-biased read-write lock, a
// seqlock for lock-free POD reads, a buffer-then-commit transaction object,
// and a deadlock detector that rejects reentrant lock acquisition.
//
// None of these enforce MVCC-grade isolation; per spec.md §4.8, the engine's
// actual isolation is limited to read_committed via the RW lock, and the
// higher Transaction.Isolation levels are reserved for a future that isn't
// built here.
package concurrency

import "sync/atomic"

// AtomicCounter is a monotonic uint32 counter used for pool/WAL statistics.
type AtomicCounter struct {
	v uint32
}

// Increment adds 1 and returns the new value.
func (c *AtomicCounter) Increment() uint32 {
	return atomic.AddUint32(&c.v, 1)
}

// Decrement subtracts 1 and returns the new value.
func (c *AtomicCounter) Decrement() uint32 {
	return atomic.AddUint32(&c.v, ^uint32(0))
}

// Load returns the current value.
func (c *AtomicCounter) Load() uint32 {
	return atomic.LoadUint32(&c.v)
}

// Store sets the value directly.
func (c *AtomicCounter) Store(v uint32) {
	atomic.StoreUint32(&c.v, v)
}

// AtomicIDGenerator produces monotonically increasing uint64 handles.
type AtomicIDGenerator struct {
	next uint64
}

// Generate returns the current value then increments it, so the first call
// returns the generator's starting value (0 unless seeded).
func (g *AtomicIDGenerator) Generate() uint64 {
	return atomic.AddUint64(&g.next, 1) - 1
}

// NewAtomicIDGenerator returns a generator whose first Generate() call
// returns start.
func NewAtomicIDGenerator(start uint64) *AtomicIDGenerator {
	return &AtomicIDGenerator{next: start}
}
