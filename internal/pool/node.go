package pool

import "github.com/nen-co/nendb/internal/nenerr"

// Node is the fixed-size record described in spec.md §3: a user-supplied
// opaque id, a domain tag, and an inline client-defined byte blob.
type Node struct {
	ID    uint64
	Kind  uint8
	Props [128]byte
}

type nodeSlot struct {
	node     Node
	firstOut uint32
	firstIn  uint32
}

// NodePool is the fixed-capacity SoA store for nodes, with a node-id → slot
// index for O(1) lookup and intrusive adjacency list heads
// (firstOut/firstIn) threaded through edge slots by the caller.
type NodePool struct {
	slots   *slotPool[nodeSlot]
	idIndex map[uint64]uint32
}

// NewNodePool allocates a node pool with the given fixed capacity.
func NewNodePool(capacity int) *NodePool {
	return &NodePool{
		slots:   newSlotPool[nodeSlot](capacity),
		idIndex: make(map[uint64]uint32, capacity),
	}
}

// Insert allocates a slot for n and indexes it by n.ID. It fails with
// nenerr.ErrPoolExhausted when no slot is free, or nenerr.ErrDuplicateID if
// n.ID is already live.
func (p *NodePool) Insert(n Node) (slot uint32, generation uint32, err error) {
	if _, exists := p.idIndex[n.ID]; exists {
		return 0, 0, nenerr.ErrDuplicateID
	}
	slot, err = p.slots.alloc()
	if err != nil {
		return 0, 0, err
	}
	p.slots.data[slot] = nodeSlot{node: n, firstOut: NoEdge, firstIn: NoEdge}
	p.idIndex[n.ID] = slot
	return slot, p.slots.generation[slot], nil
}

// SlotForID resolves a live node id to its slot index.
func (p *NodePool) SlotForID(id uint64) (uint32, bool) {
	slot, ok := p.idIndex[id]
	return slot, ok
}

// Lookup resolves a live node id to its current record.
func (p *NodePool) Lookup(id uint64) (Node, bool) {
	slot, ok := p.idIndex[id]
	if !ok {
		return Node{}, false
	}
	return p.slots.data[slot].node, true
}

// LookupSlot resolves a (slot, generation) handle, returning
// nenerr.ErrNotFound if the slot is inactive or the generation is stale.
func (p *NodePool) LookupSlot(slot, generation uint32) (Node, error) {
	if !p.slots.isLive(slot, generation) {
		return Node{}, nenerr.ErrNotFound
	}
	return p.slots.data[slot].node, nil
}

// HasIncidentEdges reports whether the node identified by id has any
// outgoing or incoming edge in its adjacency list.
func (p *NodePool) HasIncidentEdges(id uint64) bool {
	slot, ok := p.idIndex[id]
	if !ok {
		return false
	}
	rec := p.slots.data[slot]
	return rec.firstOut != NoEdge || rec.firstIn != NoEdge
}

// Delete removes the node identified by id. It fails with
// nenerr.ErrNotFound if absent, or nenerr.ErrHasIncidentEdges if the node
// still has adjacency and force is false. Callers implementing DETACH
// DELETE must unlink and delete all incident edges first, then call Delete
// with force=true.
func (p *NodePool) Delete(id uint64, force bool) error {
	slot, ok := p.idIndex[id]
	if !ok {
		return nenerr.ErrNotFound
	}
	rec := p.slots.data[slot]
	if !force && (rec.firstOut != NoEdge || rec.firstIn != NoEdge) {
		return nenerr.ErrHasIncidentEdges
	}
	delete(p.idIndex, id)
	p.slots.release(slot)
	return nil
}

// SetProps overwrites the props blob of a live node.
func (p *NodePool) SetProps(id uint64, props [128]byte) error {
	slot, ok := p.idIndex[id]
	if !ok {
		return nenerr.ErrNotFound
	}
	rec := p.slots.data[slot]
	rec.node.Props = props
	p.slots.data[slot] = rec
	return nil
}

// FirstOut returns the adjacency-list head for outgoing edges of the node
// at slot, or NoEdge.
func (p *NodePool) FirstOut(slot uint32) uint32 { return p.slots.data[slot].firstOut }

// FirstIn returns the adjacency-list head for incoming edges of the node at
// slot, or NoEdge.
func (p *NodePool) FirstIn(slot uint32) uint32 { return p.slots.data[slot].firstIn }

// SetFirstOut updates the outgoing adjacency-list head for the node at slot.
func (p *NodePool) SetFirstOut(slot, edgeSlot uint32) {
	rec := p.slots.data[slot]
	rec.firstOut = edgeSlot
	p.slots.data[slot] = rec
}

// SetFirstIn updates the incoming adjacency-list head for the node at slot.
func (p *NodePool) SetFirstIn(slot, edgeSlot uint32) {
	rec := p.slots.data[slot]
	rec.firstIn = edgeSlot
	p.slots.data[slot] = rec
}

// Generation returns the current generation counter for slot.
func (p *NodePool) Generation(slot uint32) uint32 { return p.slots.generation[slot] }

// Capacity returns the pool's fixed capacity.
func (p *NodePool) Capacity() int { return p.slots.capacity }

// Stats reports used/free/capacity counts.
func (p *NodePool) Stats() Stats { return p.slots.stats() }

// ForEachActive calls fn once per active slot in ascending slot order, the
// dense ordering spec.md §4.3 requires for snapshotting.
func (p *NodePool) ForEachActive(fn func(slot uint32, n Node)) {
	for slot := 0; slot < p.slots.highWater; slot++ {
		if p.slots.active[slot] {
			fn(uint32(slot), p.slots.data[slot].node)
		}
	}
}
