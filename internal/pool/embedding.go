package pool

import (
	"fmt"

	"github.com/nen-co/nendb/internal/nenerr"
)

// Embedding is the fixed-dimension vector record described in spec.md §3.
// Metadata is a client-defined inline blob, added in SPEC_FULL.md to keep
// the record fixed-size like Node and Edge (spec.md §3 leaves "metadata"
// otherwise unspecified).
type Embedding struct {
	NodeID   uint64
	Vector   []float32
	Metadata [32]byte
}

type embeddingSlot struct {
	nodeID   uint64
	vector   []float32
	metadata [32]byte
}

// EmbeddingPool is the fixed-capacity SoA store for embeddings, one per
// node id at most (spec.md §3).
type EmbeddingPool struct {
	slots   *slotPool[embeddingSlot]
	idIndex map[uint64]uint32
	dim     uint32
}

// NewEmbeddingPool allocates an embedding pool with the given fixed
// capacity and vector dimension.
func NewEmbeddingPool(capacity int, dim uint32) *EmbeddingPool {
	return &EmbeddingPool{
		slots:   newSlotPool[embeddingSlot](capacity),
		idIndex: make(map[uint64]uint32, capacity),
		dim:     dim,
	}
}

// Dim returns the pool's configured vector dimension.
func (p *EmbeddingPool) Dim() uint32 { return p.dim }

// Upsert inserts or replaces the embedding for nodeID. Since at most one
// embedding per node id is allowed, a second upsert overwrites the vector
// and metadata in place rather than erroring.
func (p *EmbeddingPool) Upsert(nodeID uint64, vector []float32, metadata [32]byte) (slot uint32, generation uint32, err error) {
	if uint32(len(vector)) != p.dim {
		return 0, 0, fmt.Errorf("pool: embedding vector length %d does not match configured dimension %d", len(vector), p.dim)
	}
	if existing, ok := p.idIndex[nodeID]; ok {
		rec := p.slots.data[existing]
		rec.vector = append(rec.vector[:0], vector...)
		rec.metadata = metadata
		p.slots.data[existing] = rec
		return existing, p.slots.generation[existing], nil
	}
	slot, err = p.slots.alloc()
	if err != nil {
		return 0, 0, err
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	p.slots.data[slot] = embeddingSlot{nodeID: nodeID, vector: vec, metadata: metadata}
	p.idIndex[nodeID] = slot
	return slot, p.slots.generation[slot], nil
}

// Lookup resolves a live node id to its embedding.
func (p *EmbeddingPool) Lookup(nodeID uint64) (Embedding, bool) {
	slot, ok := p.idIndex[nodeID]
	if !ok {
		return Embedding{}, false
	}
	rec := p.slots.data[slot]
	return Embedding{NodeID: rec.nodeID, Vector: rec.vector, Metadata: rec.metadata}, true
}

// Delete removes the embedding for nodeID, failing with nenerr.ErrNotFound
// if absent.
func (p *EmbeddingPool) Delete(nodeID uint64) error {
	slot, ok := p.idIndex[nodeID]
	if !ok {
		return nenerr.ErrNotFound
	}
	delete(p.idIndex, nodeID)
	p.slots.release(slot)
	return nil
}

// Capacity returns the pool's fixed capacity.
func (p *EmbeddingPool) Capacity() int { return p.slots.capacity }

// Stats reports used/free/capacity counts.
func (p *EmbeddingPool) Stats() Stats { return p.slots.stats() }

// ForEachActive calls fn once per active slot in ascending slot order, the
// dense ordering spec.md §4.3 requires for snapshotting.
func (p *EmbeddingPool) ForEachActive(fn func(slot uint32, e Embedding)) {
	for slot := 0; slot < p.slots.highWater; slot++ {
		if p.slots.active[slot] {
			rec := p.slots.data[slot]
			fn(uint32(slot), Embedding{NodeID: rec.nodeID, Vector: rec.vector, Metadata: rec.metadata})
		}
	}
}
