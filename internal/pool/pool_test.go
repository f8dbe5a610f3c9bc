package pool

import (
	"errors"
	"testing"

	"github.com/nen-co/nendb/internal/nenerr"
	"github.com/stretchr/testify/require"
)

func TestNodePoolInsertLookupDelete(t *testing.T) {
	p := NewNodePool(4)

	slot, gen, err := p.Insert(Node{ID: 1, Kind: 7})
	require.NoError(t, err)
	require.Zero(t, gen)

	got, ok := p.Lookup(1)
	require.True(t, ok)
	require.Equal(t, uint8(7), got.Kind)

	require.NoError(t, p.Delete(1, false))
	_, ok = p.Lookup(1)
	require.False(t, ok)

	// slot is reused with a bumped generation.
	slot2, gen2, err := p.Insert(Node{ID: 2, Kind: 1})
	require.NoError(t, err)
	require.Equal(t, slot, slot2)
	require.Equal(t, gen+1, gen2)
}

func TestNodePoolDuplicateID(t *testing.T) {
	p := NewNodePool(4)
	_, _, err := p.Insert(Node{ID: 1})
	require.NoError(t, err)
	_, _, err = p.Insert(Node{ID: 1})
	require.ErrorIs(t, err, nenerr.ErrDuplicateID)
}

func TestNodePoolExhausted(t *testing.T) {
	p := NewNodePool(2)
	_, _, err := p.Insert(Node{ID: 1})
	require.NoError(t, err)
	_, _, err = p.Insert(Node{ID: 2})
	require.NoError(t, err)
	_, _, err = p.Insert(Node{ID: 3})
	require.ErrorIs(t, err, nenerr.ErrPoolExhausted)
}

func TestNodePoolDeleteRequiresNoIncidentEdgesUnlessForced(t *testing.T) {
	p := NewNodePool(4)
	slot, _, err := p.Insert(Node{ID: 1})
	require.NoError(t, err)
	p.SetFirstOut(slot, 0)

	err = p.Delete(1, false)
	require.ErrorIs(t, err, nenerr.ErrHasIncidentEdges)

	require.NoError(t, p.Delete(1, true))
}

func TestNodePoolDeleteNotFound(t *testing.T) {
	p := NewNodePool(4)
	err := p.Delete(99, false)
	require.True(t, errors.Is(err, nenerr.ErrNotFound))
}

func TestNodePoolStatsInvariant(t *testing.T) {
	p := NewNodePool(4)
	p.Insert(Node{ID: 1})
	p.Insert(Node{ID: 2})
	stats := p.Stats()
	require.Equal(t, stats.Used+stats.Free, stats.Capacity)
	require.Equal(t, 2, stats.Used)
}

func TestEdgePoolSelfLoopAndParallelEdges(t *testing.T) {
	p := NewEdgePool(4)
	s1, _, err := p.Insert(Edge{From: 1, To: 1, Label: 5})
	require.NoError(t, err)
	s2, _, err := p.Insert(Edge{From: 1, To: 1, Label: 5})
	require.NoError(t, err)
	require.NotEqual(t, s1, s2)
}

func TestEdgePoolStaleHandleAfterDelete(t *testing.T) {
	p := NewEdgePool(4)
	slot, gen, err := p.Insert(Edge{From: 1, To: 2, Label: 1})
	require.NoError(t, err)
	require.NoError(t, p.Delete(slot))

	_, err = p.Lookup(slot, gen)
	require.ErrorIs(t, err, nenerr.ErrNotFound)
}

func TestEmbeddingPoolUpsertReplacesInPlace(t *testing.T) {
	p := NewEmbeddingPool(4, 3)
	slot, _, err := p.Upsert(1, []float32{1, 2, 3}, [32]byte{})
	require.NoError(t, err)

	slot2, _, err := p.Upsert(1, []float32{4, 5, 6}, [32]byte{})
	require.NoError(t, err)
	require.Equal(t, slot, slot2)

	got, ok := p.Lookup(1)
	require.True(t, ok)
	require.Equal(t, []float32{4, 5, 6}, got.Vector)
}

func TestEmbeddingPoolRejectsWrongDimension(t *testing.T) {
	p := NewEmbeddingPool(4, 3)
	_, _, err := p.Upsert(1, []float32{1, 2}, [32]byte{})
	require.Error(t, err)
}

func TestForEachActiveIsDenseAndSlotOrdered(t *testing.T) {
	p := NewNodePool(4)
	p.Insert(Node{ID: 1})
	p.Insert(Node{ID: 2})
	p.Delete(1, false)
	p.Insert(Node{ID: 3})

	var seen []uint64
	p.ForEachActive(func(slot uint32, n Node) { seen = append(seen, n.ID) })
	require.Equal(t, []uint64{3, 2}, seen)
}
