package nendb

import (
	"github.com/nen-co/nendb/internal/nenerr"
	"github.com/nen-co/nendb/internal/pool"
)

// Every mutator here follows spec.md §4.4's fixed order: (a) take the
// write lock, (b) append to the WAL, (c) mutate pools, (d) update
// counters. Conditions that would make the pool mutation fail for reasons
// already knowable before the append (duplicate id, pool exhaustion,
// dangling endpoint, not-found) are checked first, so a doomed operation
// never reaches the WAL — appending an entry the pools then reject would
// leave the log describing a mutation that was never actually observed by
// any caller, which recovery could not reproduce faithfully.

// InsertNode inserts n, returning its (slot, generation) handle.
func (db *GraphDB) InsertNode(n pool.Node) (NodeHandle, error) {
	if db.opts.ReadOnly {
		return NodeHandle{}, nenerr.ErrReadOnly
	}
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, exists := db.nodes.SlotForID(n.ID); exists {
		return NodeHandle{}, nenerr.ErrDuplicateID
	}
	if db.nodes.Stats().Free == 0 {
		return NodeHandle{}, nenerr.ErrPoolExhausted
	}

	if err := db.appendWAL(func() error { return db.w.AppendInsertNode(n.ID, n.Kind, n.Props) }); err != nil {
		return NodeHandle{}, err
	}

	slot, gen, err := db.nodes.Insert(n)
	if err != nil {
		return NodeHandle{}, err
	}
	db.afterMutation()
	return NodeHandle{Slot: slot, Generation: gen}, nil
}

// LookupNode returns a read-only view of the live node identified by id.
func (db *GraphDB) LookupNode(id uint64) (pool.Node, bool) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return db.nodes.Lookup(id)
}

// LookupNodeBySlot resolves a (slot, generation) handle, detecting stale
// references.
func (db *GraphDB) LookupNodeBySlot(h NodeHandle) (pool.Node, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return db.nodes.LookupSlot(h.Slot, h.Generation)
}

// SetNodeProps overwrites the props blob of a live node.
func (db *GraphDB) SetNodeProps(id uint64, props [128]byte) error {
	if db.opts.ReadOnly {
		return nenerr.ErrReadOnly
	}
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, ok := db.nodes.SlotForID(id); !ok {
		return nenerr.ErrNotFound
	}
	if err := db.appendWAL(func() error { return db.w.AppendSetNodeProps(id, props) }); err != nil {
		return err
	}
	err := db.nodes.SetProps(id, props)
	db.afterMutation()
	return err
}

// DeleteNode removes the node identified by id. It fails with
// nenerr.ErrHasIncidentEdges unless detach is true, in which case all
// incident edges are removed as part of the same operation (DETACH DELETE,
// spec.md §3).
func (db *GraphDB) DeleteNode(id uint64, detach bool) error {
	if db.opts.ReadOnly {
		return nenerr.ErrReadOnly
	}
	db.lock.Lock()
	defer db.lock.Unlock()

	slot, ok := db.nodes.SlotForID(id)
	if !ok {
		return nenerr.ErrNotFound
	}
	if !detach && db.nodes.HasIncidentEdges(id) {
		return nenerr.ErrHasIncidentEdges
	}

	if detach {
		for _, e := range db.collectIncidentEdges(slot) {
			if err := db.deleteEdgeLocked(e.From, e.To, e.Label); err != nil {
				return err
			}
		}
	}

	if err := db.appendWAL(func() error { return db.w.AppendDeleteNode(id) }); err != nil {
		return err
	}
	err := db.nodes.Delete(id, true)
	db.afterMutation()
	return err
}

// collectIncidentEdges materializes the full incident edge set for slot,
// since unlinking while walking the intrusive list would corrupt it. A
// self-loop sits on both lists and is collected once, from the out list.
func (db *GraphDB) collectIncidentEdges(slot uint32) []pool.Edge {
	var out []pool.Edge
	for es := db.nodes.FirstOut(slot); es != pool.NoEdge; es = db.edges.NextOut(es) {
		if e, err := db.edges.Lookup(es, db.edges.Generation(es)); err == nil {
			out = append(out, e)
		}
	}
	for es := db.nodes.FirstIn(slot); es != pool.NoEdge; es = db.edges.NextIn(es) {
		if e, err := db.edges.Lookup(es, db.edges.Generation(es)); err == nil && e.From != e.To {
			out = append(out, e)
		}
	}
	return out
}

// InsertEdge inserts a directed edge from→to. Both endpoints must resolve
// in the node id index, else nenerr.ErrDanglingEndpoint. Self-loops and
// parallel edges are both permitted (spec.md §4.1).
func (db *GraphDB) InsertEdge(from, to uint64, label uint16, props [64]byte) (EdgeHandle, error) {
	if db.opts.ReadOnly {
		return EdgeHandle{}, nenerr.ErrReadOnly
	}
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, ok := db.nodes.SlotForID(from); !ok {
		return EdgeHandle{}, nenerr.ErrDanglingEndpoint
	}
	if _, ok := db.nodes.SlotForID(to); !ok {
		return EdgeHandle{}, nenerr.ErrDanglingEndpoint
	}
	if db.edges.Stats().Free == 0 {
		return EdgeHandle{}, nenerr.ErrPoolExhausted
	}

	if err := db.appendWAL(func() error { return db.w.AppendInsertEdge(from, to, label, props) }); err != nil {
		return EdgeHandle{}, err
	}

	slot, gen, err := db.insertEdgeLocked(from, to, label, props)
	if err != nil {
		return EdgeHandle{}, err
	}
	db.afterMutation()
	return EdgeHandle{Slot: slot, Generation: gen}, nil
}

// insertEdgeLocked performs the actual pool insertion plus adjacency-list
// threading; the caller holds the write lock.
func (db *GraphDB) insertEdgeLocked(from, to uint64, label uint16, props [64]byte) (uint32, uint32, error) {
	slot, gen, err := db.edges.Insert(pool.Edge{From: from, To: to, Label: label, Props: props})
	if err != nil {
		return 0, 0, err
	}

	fromSlot, _ := db.nodes.SlotForID(from)
	toSlot, _ := db.nodes.SlotForID(to)

	db.edges.SetNextOut(slot, db.nodes.FirstOut(fromSlot))
	db.nodes.SetFirstOut(fromSlot, slot)

	db.edges.SetNextIn(slot, db.nodes.FirstIn(toSlot))
	db.nodes.SetFirstIn(toSlot, slot)

	return slot, gen, nil
}

// linkNewEdge is the WAL/snapshot recovery path: it assumes the entry was
// already validated when originally accepted, so endpoint/capacity checks
// are skipped.
func (db *GraphDB) linkNewEdge(from, to uint64, label uint16, props [64]byte) error {
	_, _, err := db.insertEdgeLocked(from, to, label, props)
	return err
}

// DeleteEdge removes the first edge matching (from, to, label) found in
// from's outgoing adjacency list.
func (db *GraphDB) DeleteEdge(from, to uint64, label uint16) error {
	if db.opts.ReadOnly {
		return nenerr.ErrReadOnly
	}
	db.lock.Lock()
	defer db.lock.Unlock()

	fromSlot, ok := db.nodes.SlotForID(from)
	if !ok {
		return nenerr.ErrNotFound
	}
	if !db.findEdge(fromSlot, to, label) {
		return nenerr.ErrNotFound
	}

	if err := db.appendWAL(func() error { return db.w.AppendDeleteEdge(from, to, label) }); err != nil {
		return err
	}
	err := db.deleteEdgeLocked(from, to, label)
	db.afterMutation()
	return err
}

func (db *GraphDB) findEdge(fromSlot uint32, to uint64, label uint16) bool {
	for es := db.nodes.FirstOut(fromSlot); es != pool.NoEdge; es = db.edges.NextOut(es) {
		e, err := db.edges.Lookup(es, db.edges.Generation(es))
		if err == nil && e.To == to && e.Label == label {
			return true
		}
	}
	return false
}

func (db *GraphDB) deleteEdgeLocked(from, to uint64, label uint16) error {
	fromSlot, ok := db.nodes.SlotForID(from)
	if !ok {
		return nenerr.ErrNotFound
	}
	toSlot, ok := db.nodes.SlotForID(to)
	if !ok {
		return nenerr.ErrNotFound
	}

	var target uint32 = pool.NoEdge
	for es := db.nodes.FirstOut(fromSlot); es != pool.NoEdge; es = db.edges.NextOut(es) {
		e, err := db.edges.Lookup(es, db.edges.Generation(es))
		if err == nil && e.To == to && e.Label == label {
			target = es
			break
		}
	}
	if target == pool.NoEdge {
		return nenerr.ErrNotFound
	}

	unlink(
		func() uint32 { return db.nodes.FirstOut(fromSlot) },
		func(v uint32) { db.nodes.SetFirstOut(fromSlot, v) },
		db.edges.NextOut, db.edges.SetNextOut, target,
	)
	unlink(
		func() uint32 { return db.nodes.FirstIn(toSlot) },
		func(v uint32) { db.nodes.SetFirstIn(toSlot, v) },
		db.edges.NextIn, db.edges.SetNextIn, target,
	)

	return db.edges.Delete(target)
}

// unlink removes target from a singly-linked intrusive adjacency list.
func unlink(head func() uint32, setHead func(uint32), next func(uint32) uint32, setNext func(uint32, uint32), target uint32) {
	prev := pool.NoEdge
	cur := head()
	for cur != pool.NoEdge {
		if cur == target {
			if prev == pool.NoEdge {
				setHead(next(cur))
			} else {
				setNext(prev, next(cur))
			}
			return
		}
		prev = cur
		cur = next(cur)
	}
}

// unlinkAndDeleteEdge is the WAL recovery path for DeleteEdge.
func (db *GraphDB) unlinkAndDeleteEdge(from, to uint64, label uint16) error {
	return db.deleteEdgeLocked(from, to, label)
}

// LookupEdgeBySlot resolves an edge handle, detecting stale references.
func (db *GraphDB) LookupEdgeBySlot(h EdgeHandle) (pool.Edge, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return db.edges.Lookup(h.Slot, h.Generation)
}

// Neighbors returns a lazy, restartable sequence over edges incident to
// nodeID in the given direction, optionally filtered by label. Iteration
// order is deterministic but unspecified (spec.md §4.1).
func (db *GraphDB) Neighbors(nodeID uint64, dir Direction, label *uint16) (func(yield func(pool.Edge) bool), error) {
	db.lock.RLock()
	slot, ok := db.nodes.SlotForID(nodeID)
	db.lock.RUnlock()
	if !ok {
		return nil, nenerr.ErrNotFound
	}

	walkOut := func(yield func(pool.Edge) bool) bool {
		for es := db.nodes.FirstOut(slot); es != pool.NoEdge; es = db.edges.NextOut(es) {
			e, err := db.edges.Lookup(es, db.edges.Generation(es))
			if err != nil {
				continue
			}
			if label != nil && e.Label != *label {
				continue
			}
			if !yield(e) {
				return false
			}
		}
		return true
	}
	walkIn := func(yield func(pool.Edge) bool) bool {
		for es := db.nodes.FirstIn(slot); es != pool.NoEdge; es = db.edges.NextIn(es) {
			e, err := db.edges.Lookup(es, db.edges.Generation(es))
			if err != nil {
				continue
			}
			if label != nil && e.Label != *label {
				continue
			}
			if !yield(e) {
				return false
			}
		}
		return true
	}

	return func(yield func(pool.Edge) bool) {
		db.lock.RLock()
		defer db.lock.RUnlock()
		switch dir {
		case Out:
			walkOut(yield)
		case In:
			walkIn(yield)
		case Both:
			if walkOut(yield) {
				walkIn(yield)
			}
		}
	}, nil
}

// UpsertEmbedding inserts or replaces the embedding for nodeID.
func (db *GraphDB) UpsertEmbedding(nodeID uint64, vec []float32, metadata [32]byte) error {
	if db.opts.ReadOnly {
		return nenerr.ErrReadOnly
	}
	db.lock.Lock()
	defer db.lock.Unlock()

	if uint32(len(vec)) != db.opts.EmbeddingDim {
		return nenerr.NewEvalError(nenerr.TypeMismatch, "embedding vector length mismatch")
	}
	if err := db.appendWAL(func() error { return db.w.AppendEmbeddingUpsert(nodeID, vec) }); err != nil {
		return err
	}
	_, _, err := db.embeddings.Upsert(nodeID, vec, metadata)
	db.afterMutation()
	return err
}

// LookupEmbedding returns the embedding for nodeID, if any.
func (db *GraphDB) LookupEmbedding(nodeID uint64) (pool.Embedding, bool) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return db.embeddings.Lookup(nodeID)
}

// appendWAL runs fn (a WAL append) and marks the WAL unhealthy on failure;
// per spec.md §4.4 the mutation is aborted when this fails.
func (db *GraphDB) appendWAL(fn func() error) error {
	if err := fn(); err != nil {
		s := db.w.Stats()
		db.setHealth(WALHealth{Healthy: s.Healthy, IOErrorCount: s.IOErrorCount})
		return err
	}
	return nil
}

// afterMutation updates the snapshot-cadence counter and the cached WAL
// health, and triggers a snapshot if the configured cadence was reached.
func (db *GraphDB) afterMutation() {
	s := db.w.Stats()
	db.setHealth(WALHealth{Healthy: s.Healthy, IOErrorCount: s.IOErrorCount})

	db.opsSinceSnapshot++
	if db.opts.SnapshotEveryOps > 0 && db.opsSinceSnapshot >= db.opts.SnapshotEveryOps {
		if err := db.snapshotLocked(); err != nil {
			db.logger.Error().Err(err).Msg("automatic snapshot failed")
		}
	}
}
