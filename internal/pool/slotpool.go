// Package pool implements the three fixed-capacity Struct-of-Arrays stores
// that back node, edge, and embedding storage: NodePool, EdgePool, and
// EmbeddingPool. Each wraps a small generic slotPool[T] that handles the
// free-list/generation bookkeeping common to all three, generalizing the
// teacher's sync.Pool-of-garbage-collected-objects pattern
// (pkg/pool/pool.go) to pools that never grow and never collect: capacity
// is fixed at construction, slots are reused via a LIFO free list, and a
// per-slot generation counter detects stale (slot, generation) handles.
//
// Pools here do not know about each other. Cross-pool concerns — verifying
// an edge's endpoints resolve in the node id index, threading adjacency
// lists across a node slot and an edge slot, appending to the WAL — are the
// GraphDB facade's job (package nendb, spec.md §4.4), not this package's.
package pool

import "github.com/nen-co/nendb/internal/nenerr"

// NoEdge is the adjacency-list terminator: "no edge follows."
const NoEdge = ^uint32(0)

// slotPool holds a fixed-capacity array of T plus parallel active/generation
// arrays, exactly as spec.md §3 describes a pool. highWater is the number of
// slots ever allocated (the array's used prefix); free holds reusable slot
// indices in LIFO order; usedCount is the number of currently active slots.
type slotPool[T any] struct {
	data       []T
	active     []bool
	generation []uint32
	free       []uint32
	capacity   int
	highWater  int
	usedCount  int
}

func newSlotPool[T any](capacity int) *slotPool[T] {
	return &slotPool[T]{
		data:       make([]T, capacity),
		active:     make([]bool, capacity),
		generation: make([]uint32, capacity),
		capacity:   capacity,
	}
}

// alloc reserves a slot, preferring the top of the free list, and reports
// nenerr.ErrPoolExhausted if the pool is at capacity.
func (p *slotPool[T]) alloc() (uint32, error) {
	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		p.active[slot] = true
		p.usedCount++
		return slot, nil
	}
	if p.highWater >= p.capacity {
		return 0, nenerr.ErrPoolExhausted
	}
	slot := uint32(p.highWater)
	p.highWater++
	p.active[slot] = true
	p.usedCount++
	return slot, nil
}

// release marks slot inactive, bumps its generation so stale handles are
// detectable, and pushes it back onto the free list.
func (p *slotPool[T]) release(slot uint32) {
	var zero T
	p.data[slot] = zero
	p.active[slot] = false
	p.generation[slot]++
	p.free = append(p.free, slot)
	p.usedCount--
}

func (p *slotPool[T]) isLive(slot, generation uint32) bool {
	return int(slot) < p.highWater && p.active[slot] && p.generation[slot] == generation
}

// Stats reports a pool's memory-bound usage, matching spec.md §4.4's
// get_stats() memory section.
type Stats struct {
	Used     int
	Free     int
	Capacity int
}

func (p *slotPool[T]) stats() Stats {
	return Stats{Used: p.usedCount, Free: p.capacity - p.usedCount, Capacity: p.capacity}
}
