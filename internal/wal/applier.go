package wal

// Applier receives decoded WAL entries during recovery and applies them to
// live pool state. The GraphDB facade implements this interface so this
// package never imports internal/pool directly, keeping dependency order
// leaves-first as spec.md §2 lays it out (WAL before pools; recovery
// wires them back together at the facade).
type Applier interface {
	ApplyInsertNode(id uint64, kind uint8, props [128]byte) error
	ApplyDeleteNode(id uint64) error
	ApplyInsertEdge(from, to uint64, label uint16, props [64]byte) error
	ApplyDeleteEdge(from, to uint64, label uint16) error
	ApplySetNodeProps(id uint64, props [128]byte) error
	ApplyEmbeddingUpsert(id uint64, vec []float32) error
}
