package pool

import "github.com/nen-co/nendb/internal/nenerr"

// Edge is the fixed-size record described in spec.md §3: a directed edge
// between two node ids, a label, and an inline props blob. No uniqueness
// constraint is enforced here on (From, To, Label) — self-loops and
// parallel edges are both permitted, per spec.md §4.1.
type Edge struct {
	From, To uint64
	Label    uint16
	Props    [64]byte
}

type edgeSlot struct {
	edge    Edge
	nextOut uint32
	nextIn  uint32
}

// EdgePool is the fixed-capacity SoA store for edges. It holds no endpoint
// validation or adjacency-head state of its own: those live on NodePool and
// are wired by the GraphDB facade, which alone sees both pools.
type EdgePool struct {
	slots *slotPool[edgeSlot]
}

// NewEdgePool allocates an edge pool with the given fixed capacity.
func NewEdgePool(capacity int) *EdgePool {
	return &EdgePool{slots: newSlotPool[edgeSlot](capacity)}
}

// Insert allocates a slot for e with an empty adjacency-list continuation
// (NoEdge on both nextOut and nextIn); the caller links it into the
// endpoints' adjacency lists.
func (p *EdgePool) Insert(e Edge) (slot uint32, generation uint32, err error) {
	slot, err = p.slots.alloc()
	if err != nil {
		return 0, 0, err
	}
	p.slots.data[slot] = edgeSlot{edge: e, nextOut: NoEdge, nextIn: NoEdge}
	return slot, p.slots.generation[slot], nil
}

// Lookup resolves a (slot, generation) handle to its current edge record.
func (p *EdgePool) Lookup(slot, generation uint32) (Edge, error) {
	if !p.slots.isLive(slot, generation) {
		return Edge{}, nenerr.ErrNotFound
	}
	return p.slots.data[slot].edge, nil
}

// Delete releases the edge slot. The caller must have already unlinked it
// from both endpoints' adjacency lists.
func (p *EdgePool) Delete(slot uint32) error {
	if !p.slots.isLive(slot, p.slots.generation[slot]) {
		return nenerr.ErrNotFound
	}
	p.slots.release(slot)
	return nil
}

// NextOut returns the next edge in the "from"-node's outgoing adjacency
// list after slot, or NoEdge.
func (p *EdgePool) NextOut(slot uint32) uint32 { return p.slots.data[slot].nextOut }

// NextIn returns the next edge in the "to"-node's incoming adjacency list
// after slot, or NoEdge.
func (p *EdgePool) NextIn(slot uint32) uint32 { return p.slots.data[slot].nextIn }

// SetNextOut updates the outgoing adjacency-list continuation for slot.
func (p *EdgePool) SetNextOut(slot, edgeSlot uint32) {
	rec := p.slots.data[slot]
	rec.nextOut = edgeSlot
	p.slots.data[slot] = rec
}

// SetNextIn updates the incoming adjacency-list continuation for slot.
func (p *EdgePool) SetNextIn(slot, edgeSlot uint32) {
	rec := p.slots.data[slot]
	rec.nextIn = edgeSlot
	p.slots.data[slot] = rec
}

// Generation returns the current generation counter for slot.
func (p *EdgePool) Generation(slot uint32) uint32 { return p.slots.generation[slot] }

// Capacity returns the pool's fixed capacity.
func (p *EdgePool) Capacity() int { return p.slots.capacity }

// Stats reports used/free/capacity counts.
func (p *EdgePool) Stats() Stats { return p.slots.stats() }

// ForEachActive calls fn once per active slot in ascending slot order, the
// dense ordering spec.md §4.3 requires for snapshotting.
func (p *EdgePool) ForEachActive(fn func(slot uint32, e Edge)) {
	for slot := 0; slot < p.slots.highWater; slot++ {
		if p.slots.active[slot] {
			fn(uint32(slot), p.slots.data[slot].edge)
		}
	}
}
