package nendb

import "github.com/nen-co/nendb/internal/pool"

// walApplier and snapshotLoader/snapshotSource adapt *GraphDB onto the
// wal.Applier and snapshot.Loader/Source interfaces, so internal/wal and
// internal/snapshot never import internal/pool directly (spec.md §2's
// leaves-first dependency order: WAL and snapshot sit below pools).
//
// Both appliers mutate pools directly without going through the WAL or
// lock machinery in db.go/mutators.go. walApplier runs only during Open,
// before the GraphDB is handed back to any caller, so no concurrent access
// is possible yet; snapshotLoader also runs from RestoreFromSnapshot, which
// holds the write lock around it.
type walApplier GraphDB

func (a *walApplier) ApplyInsertNode(id uint64, kind uint8, props [128]byte) error {
	db := (*GraphDB)(a)
	_, _, err := db.nodes.Insert(pool.Node{ID: id, Kind: kind, Props: props})
	return err
}

func (a *walApplier) ApplyDeleteNode(id uint64) error {
	db := (*GraphDB)(a)
	// A DETACH delete logs only the DeleteNode entry, so incident edges are
	// unlinked here before the forced delete, as DeleteNode does live.
	if slot, ok := db.nodes.SlotForID(id); ok {
		for _, e := range db.collectIncidentEdges(slot) {
			if err := db.unlinkAndDeleteEdge(e.From, e.To, e.Label); err != nil {
				return err
			}
		}
	}
	return db.nodes.Delete(id, true)
}

func (a *walApplier) ApplyInsertEdge(from, to uint64, label uint16, props [64]byte) error {
	db := (*GraphDB)(a)
	return db.linkNewEdge(from, to, label, props)
}

func (a *walApplier) ApplyDeleteEdge(from, to uint64, label uint16) error {
	db := (*GraphDB)(a)
	return db.unlinkAndDeleteEdge(from, to, label)
}

func (a *walApplier) ApplySetNodeProps(id uint64, props [128]byte) error {
	db := (*GraphDB)(a)
	return db.nodes.SetProps(id, props)
}

func (a *walApplier) ApplyEmbeddingUpsert(id uint64, vec []float32) error {
	db := (*GraphDB)(a)
	_, _, err := db.embeddings.Upsert(id, vec, [32]byte{})
	return err
}

type snapshotLoader GraphDB

func (l *snapshotLoader) LoadNode(id uint64, kind uint8, props [128]byte) error {
	db := (*GraphDB)(l)
	_, _, err := db.nodes.Insert(pool.Node{ID: id, Kind: kind, Props: props})
	return err
}

func (l *snapshotLoader) LoadEdge(from, to uint64, label uint16, props [64]byte) error {
	db := (*GraphDB)(l)
	return db.linkNewEdge(from, to, label, props)
}

func (l *snapshotLoader) LoadEmbedding(nodeID uint64, vec []float32, metadata [32]byte) error {
	db := (*GraphDB)(l)
	_, _, err := db.embeddings.Upsert(nodeID, vec, metadata)
	return err
}

type snapshotSource GraphDB

func (s *snapshotSource) ForEachNode(fn func(id uint64, kind uint8, props [128]byte)) {
	db := (*GraphDB)(s)
	db.nodes.ForEachActive(func(_ uint32, n pool.Node) { fn(n.ID, n.Kind, n.Props) })
}

func (s *snapshotSource) ForEachEdge(fn func(from, to uint64, label uint16, props [64]byte)) {
	db := (*GraphDB)(s)
	db.edges.ForEachActive(func(_ uint32, e pool.Edge) { fn(e.From, e.To, e.Label, e.Props) })
}

func (s *snapshotSource) ForEachEmbedding(fn func(nodeID uint64, vec []float32, metadata [32]byte)) {
	db := (*GraphDB)(s)
	db.embeddings.ForEachActive(func(_ uint32, e pool.Embedding) { fn(e.NodeID, e.Vector, e.Metadata) })
}

func (s *snapshotSource) Counts() (nodes, edges, embeddings uint64) {
	db := (*GraphDB)(s)
	return uint64(db.nodes.Stats().Used), uint64(db.edges.Stats().Used), uint64(db.embeddings.Stats().Used)
}

func (s *snapshotSource) EmbeddingDim() uint32 {
	return (*GraphDB)(s).opts.EmbeddingDim
}
