package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	id    uint64
	kind  uint8
	props [128]byte
}

type fakeEdge struct {
	from, to uint64
	label    uint16
	props    [64]byte
}

type fakeEmbedding struct {
	nodeID   uint64
	vec      []float32
	metadata [32]byte
}

type fakeSource struct {
	nodes      []fakeNode
	edges      []fakeEdge
	embeddings []fakeEmbedding
	dim        uint32
}

func (s *fakeSource) ForEachNode(fn func(id uint64, kind uint8, props [128]byte)) {
	for _, n := range s.nodes {
		fn(n.id, n.kind, n.props)
	}
}
func (s *fakeSource) ForEachEdge(fn func(from, to uint64, label uint16, props [64]byte)) {
	for _, e := range s.edges {
		fn(e.from, e.to, e.label, e.props)
	}
}
func (s *fakeSource) ForEachEmbedding(fn func(nodeID uint64, vec []float32, metadata [32]byte)) {
	for _, e := range s.embeddings {
		fn(e.nodeID, e.vec, e.metadata)
	}
}
func (s *fakeSource) Counts() (uint64, uint64, uint64) {
	return uint64(len(s.nodes)), uint64(len(s.edges)), uint64(len(s.embeddings))
}
func (s *fakeSource) EmbeddingDim() uint32 { return s.dim }

type fakeLoader struct {
	nodes      []fakeNode
	edges      []fakeEdge
	embeddings []fakeEmbedding
}

func (l *fakeLoader) LoadNode(id uint64, kind uint8, props [128]byte) error {
	l.nodes = append(l.nodes, fakeNode{id, kind, props})
	return nil
}
func (l *fakeLoader) LoadEdge(from, to uint64, label uint16, props [64]byte) error {
	l.edges = append(l.edges, fakeEdge{from, to, label, props})
	return nil
}
func (l *fakeLoader) LoadEmbedding(nodeID uint64, vec []float32, metadata [32]byte) error {
	l.embeddings = append(l.embeddings, fakeEmbedding{nodeID, vec, metadata})
	return nil
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := &fakeSource{
		nodes: []fakeNode{{id: 1, kind: 7}, {id: 2, kind: 1}},
		edges: []fakeEdge{{from: 1, to: 2, label: 5}},
		embeddings: []fakeEmbedding{
			{nodeID: 1, vec: []float32{1, 2, 3}},
		},
		dim: 3,
	}

	path := filepath.Join(t.TempDir(), "nendb.snap.1")
	require.NoError(t, Write(path, src))

	loader := &fakeLoader{}
	require.NoError(t, Load(path, loader))

	require.Len(t, loader.nodes, 2)
	require.Equal(t, uint64(1), loader.nodes[0].id)
	require.Equal(t, uint8(7), loader.nodes[0].kind)
	require.Len(t, loader.edges, 1)
	require.Equal(t, uint16(5), loader.edges[0].label)
	require.Len(t, loader.embeddings, 1)
	require.Equal(t, []float32{1, 2, 3}, loader.embeddings[0].vec)
}

func TestSnapshotEmptyPools(t *testing.T) {
	src := &fakeSource{dim: 4}
	path := filepath.Join(t.TempDir(), "nendb.snap.1")
	require.NoError(t, Write(path, src))

	loader := &fakeLoader{}
	require.NoError(t, Load(path, loader))
	require.Empty(t, loader.nodes)
	require.Empty(t, loader.edges)
	require.Empty(t, loader.embeddings)
}
