package cypher

// NeighborEdge is the primitive view of an adjacency-list entry the
// executor needs: enough to filter by label/direction and to resolve the
// edge's own properties, without this package importing internal/pool
// directly (same decoupling internal/wal and internal/snapshot use for
// their Applier/Source/Loader interfaces, spec.md §2's leaves-first order).
type NeighborEdge struct {
	From  uint64
	To    uint64
	Label uint16
	Slot  uint32
	Gen   uint32
	Props [64]byte
}

// Graph is the GraphDB facade's surface as seen by the executor. The root
// package implements this via a thin adapter type, the same named-type-
// conversion trick adapters.go uses for walApplier/snapshotLoader.
type Graph interface {
	ForEachNode(fn func(id uint64, kind uint8, props [128]byte))
	LookupNode(id uint64) (kind uint8, props [128]byte, ok bool)
	LookupEdge(slot, gen uint32) (from, to uint64, label uint16, props [64]byte, ok bool)
	NeighborsOut(nodeID uint64) []NeighborEdge
	NeighborsIn(nodeID uint64) []NeighborEdge

	InsertNode(id uint64, kind uint8, props [128]byte) (err error)
	InsertEdge(from, to uint64, label uint16, props [64]byte) (slot, gen uint32, err error)
	DeleteNode(id uint64, detach bool) error
	DeleteEdge(from, to uint64, label uint16) error
	SetNodeProps(id uint64, props [128]byte) error

	// NewNodeID allocates an id for a node created by CREATE/MERGE without
	// one supplied in the pattern's map literal.
	NewNodeID() uint64

	// KindForLabels maps a node pattern's label list onto the single u8
	// domain tag Node.Kind actually stores (spec.md §3).
	KindForLabels(labels []string) uint8

	// LabelForType maps a relationship pattern's type name onto the
	// Edge.Label u16 the pool stores. An empty typeName means "no filter".
	LabelForType(typeName string) uint16
}
