package cypher

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeGraph is a minimal in-memory Graph implementation for executor tests,
// independent of the real pool-backed GraphDB.
type fakeGraph struct {
	nextID uint64
	nextEs uint32

	nodeKind  map[uint64]uint8
	nodeProps map[uint64][128]byte
	order     []uint64 // insertion order, for deterministic ForEachNode

	edges map[uint32]fakeEdge
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		nodeKind:  map[uint64]uint8{},
		nodeProps: map[uint64][128]byte{},
		edges:     map[uint32]fakeEdge{},
	}
}

type fakeEdge struct {
	from, to uint64
	label    uint16
	props    [64]byte
}

func (g *fakeGraph) ForEachNode(fn func(id uint64, kind uint8, props [128]byte)) {
	for _, id := range g.order {
		fn(id, g.nodeKind[id], g.nodeProps[id])
	}
}

func (g *fakeGraph) LookupNode(id uint64) (uint8, [128]byte, bool) {
	k, ok := g.nodeKind[id]
	return k, g.nodeProps[id], ok
}

func (g *fakeGraph) LookupEdge(slot, gen uint32) (uint64, uint64, uint16, [64]byte, bool) {
	e, ok := g.edges[slot]
	return e.from, e.to, e.label, e.props, ok
}

func (g *fakeGraph) NeighborsOut(nodeID uint64) []NeighborEdge {
	var out []NeighborEdge
	for slot, e := range g.edges {
		if e.from == nodeID {
			out = append(out, NeighborEdge{From: e.from, To: e.to, Label: e.label, Slot: slot, Gen: 1, Props: e.props})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

func (g *fakeGraph) NeighborsIn(nodeID uint64) []NeighborEdge {
	var out []NeighborEdge
	for slot, e := range g.edges {
		if e.to == nodeID {
			out = append(out, NeighborEdge{From: e.from, To: e.to, Label: e.label, Slot: slot, Gen: 1, Props: e.props})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

func (g *fakeGraph) InsertNode(id uint64, kind uint8, props [128]byte) error {
	if _, exists := g.nodeKind[id]; !exists {
		g.order = append(g.order, id)
	}
	g.nodeKind[id] = kind
	g.nodeProps[id] = props
	return nil
}

func (g *fakeGraph) InsertEdge(from, to uint64, label uint16, props [64]byte) (uint32, uint32, error) {
	g.nextEs++
	slot := g.nextEs
	g.edges[slot] = fakeEdge{from: from, to: to, label: label, props: props}
	return slot, 1, nil
}

func (g *fakeGraph) DeleteNode(id uint64, detach bool) error {
	delete(g.nodeKind, id)
	delete(g.nodeProps, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

func (g *fakeGraph) DeleteEdge(from, to uint64, label uint16) error {
	for slot, e := range g.edges {
		if e.from == from && e.to == to && e.label == label {
			delete(g.edges, slot)
			return nil
		}
	}
	return nil
}

func (g *fakeGraph) SetNodeProps(id uint64, props [128]byte) error {
	g.nodeProps[id] = props
	return nil
}

func (g *fakeGraph) NewNodeID() uint64 {
	g.nextID++
	return 1000 + g.nextID
}

func (g *fakeGraph) KindForLabels(labels []string) uint8 {
	if len(labels) == 0 {
		return 0
	}
	return uint8(labels[0][0])
}

func (g *fakeGraph) LabelForType(typeName string) uint16 {
	if typeName == "" {
		return 0
	}
	return uint16(typeName[0])
}

func mustProps128(t *testing.T, m map[string]Value) [128]byte {
	t.Helper()
	return encodeProps128(m)
}

func TestExecuteCreateAndReturn(t *testing.T) {
	g := newFakeGraph()
	rs, err := Execute(`CREATE (n:Person {name: "ada", age: 30}) RETURN n.name, n.age`, g)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	require.Equal(t, "ada", rs.Rows[0][0].Text)
	require.EqualValues(t, 30, rs.Rows[0][1].Int)
}

func TestExecuteMatchWhereReturn(t *testing.T) {
	g := newFakeGraph()
	require.NoError(t, g.InsertNode(1, 'P', mustProps128(t, map[string]Value{"name": Text("ada"), "age": Int(30)})))
	require.NoError(t, g.InsertNode(2, 'P', mustProps128(t, map[string]Value{"name": Text("bob"), "age": Int(20)})))

	rs, err := Execute(`MATCH (n) WHERE n.age > 25 RETURN n.name`, g)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	require.Equal(t, "ada", rs.Rows[0][0].Text)
}

func TestExecuteMatchRelationshipTraversal(t *testing.T) {
	g := newFakeGraph()
	require.NoError(t, g.InsertNode(1, 0, [128]byte{}))
	require.NoError(t, g.InsertNode(2, 0, [128]byte{}))
	_, _, err := g.InsertEdge(1, 2, uint16('K'), [64]byte{})
	require.NoError(t, err)

	rs, err := Execute(`MATCH (a)-[:KNOWS]->(b) RETURN id(a), id(b)`, g)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	require.EqualValues(t, 1, rs.Rows[0][0].Int)
	require.EqualValues(t, 2, rs.Rows[0][1].Int)
}

func TestExecuteOptionalMatchNullFill(t *testing.T) {
	g := newFakeGraph()
	require.NoError(t, g.InsertNode(1, 0, [128]byte{}))

	rs, err := Execute(`MATCH (a) OPTIONAL MATCH (a)-[r:KNOWS]->(b) RETURN b`, g)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	require.True(t, rs.Rows[0][0].IsNull())
}

func TestExecuteAggregateCount(t *testing.T) {
	g := newFakeGraph()
	require.NoError(t, g.InsertNode(1, 0, [128]byte{}))
	require.NoError(t, g.InsertNode(2, 0, [128]byte{}))
	require.NoError(t, g.InsertNode(3, 0, [128]byte{}))

	rs, err := Execute(`MATCH (n) RETURN count(n)`, g)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	require.EqualValues(t, 3, rs.Rows[0][0].Int)
}

func TestExecuteDistinctOrderByLimit(t *testing.T) {
	g := newFakeGraph()
	require.NoError(t, g.InsertNode(1, 0, mustProps128(t, map[string]Value{"v": Int(2)})))
	require.NoError(t, g.InsertNode(2, 0, mustProps128(t, map[string]Value{"v": Int(1)})))
	require.NoError(t, g.InsertNode(3, 0, mustProps128(t, map[string]Value{"v": Int(1)})))

	rs, err := Execute(`MATCH (n) RETURN DISTINCT n.v ORDER BY n.v LIMIT 1`, g)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	require.EqualValues(t, 1, rs.Rows[0][0].Int)
}

func TestExecuteSetAndDelete(t *testing.T) {
	g := newFakeGraph()
	require.NoError(t, g.InsertNode(1, 0, mustProps128(t, map[string]Value{"age": Int(10)})))

	_, err := Execute(`MATCH (n) SET n.age = 11`, g)
	require.NoError(t, err)
	_, props, _ := g.LookupNode(1)
	require.Equal(t, Int(11), decodeProps(props[:])["age"])

	_, err = Execute(`MATCH (n) DELETE n`, g)
	require.NoError(t, err)
	_, _, ok := g.LookupNode(1)
	require.False(t, ok)
}

func TestExecuteUnwind(t *testing.T) {
	g := newFakeGraph()
	rs, err := Execute(`UNWIND [1, 2, 3] AS x RETURN x`, g)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 3)
}

func TestExecuteVariableLengthUnsupported(t *testing.T) {
	g := newFakeGraph()
	require.NoError(t, g.InsertNode(1, 0, [128]byte{}))
	_, err := Execute(`MATCH (a)-[:KNOWS*1..3]->(b) RETURN a`, g)
	require.Error(t, err)
}
