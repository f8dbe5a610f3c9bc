package nendb

import (
	"hash/fnv"

	"github.com/nen-co/nendb/internal/cypher"
	"github.com/nen-co/nendb/internal/pool"
)

// generatedIDBase separates node ids the Cypher executor allocates (for
// CREATE/MERGE patterns with no id supplied) from the caller's own id space,
// which is free to use any uint64 including small sequential values.
const generatedIDBase = uint64(1) << 63

// cypherGraph adapts *GraphDB onto internal/cypher's Graph interface, the
// same named-type-conversion idiom adapters.go uses for walApplier and
// snapshotLoader/snapshotSource: a type with identical underlying layout so
// (*cypherGraph)(db) is a free conversion, not a wrapping allocation.
type cypherGraph GraphDB

// Execute parses and runs a Cypher subset query against db, per spec.md
// §4.6–§4.7. Writes made by CREATE/MERGE/SET/DELETE/REMOVE go through the
// normal mutator path (WAL append, then pool mutation), so they observe the
// same durability and validation rules as calling InsertNode/InsertEdge/etc.
// directly.
func (db *GraphDB) Execute(query string) (*cypher.ResultSet, error) {
	return cypher.Execute(query, (*cypherGraph)(db))
}

// NewNodeID allocates an id for a node a Cypher CREATE/MERGE pattern needs
// to create without the query supplying one explicitly.
func (db *GraphDB) NewNodeID() uint64 {
	return generatedIDBase + db.nextGeneratedID.Add(1)
}

func (g *cypherGraph) asDB() *GraphDB { return (*GraphDB)(g) }

func (g *cypherGraph) ForEachNode(fn func(id uint64, kind uint8, props [128]byte)) {
	db := g.asDB()
	db.lock.RLock()
	defer db.lock.RUnlock()
	db.nodes.ForEachActive(func(_ uint32, n pool.Node) {
		fn(n.ID, n.Kind, n.Props)
	})
}

func (g *cypherGraph) LookupNode(id uint64) (uint8, [128]byte, bool) {
	n, ok := g.asDB().LookupNode(id)
	if !ok {
		return 0, [128]byte{}, false
	}
	return n.Kind, n.Props, true
}

func (g *cypherGraph) LookupEdge(slot, gen uint32) (from, to uint64, label uint16, props [64]byte, ok bool) {
	e, err := g.asDB().LookupEdgeBySlot(EdgeHandle{Slot: slot, Generation: gen})
	if err != nil {
		return 0, 0, 0, [64]byte{}, false
	}
	return e.From, e.To, e.Label, e.Props, true
}

// neighbors walks the intrusive adjacency list directly (rather than going
// through the public Neighbors iterator, whose yield carries pool.Edge but
// not the edge's own slot/generation) since the executor needs the handle to
// build relationship-variable EdgeRef values.
func (g *cypherGraph) neighbors(nodeID uint64, dir Direction) []cypher.NeighborEdge {
	db := g.asDB()
	db.lock.RLock()
	defer db.lock.RUnlock()

	slot, ok := db.nodes.SlotForID(nodeID)
	if !ok {
		return nil
	}

	var out []cypher.NeighborEdge
	walk := func(head uint32, next func(uint32) uint32) {
		for es := head; es != pool.NoEdge; es = next(es) {
			gen := db.edges.Generation(es)
			e, err := db.edges.Lookup(es, gen)
			if err != nil {
				continue
			}
			out = append(out, cypher.NeighborEdge{
				From:  e.From,
				To:    e.To,
				Label: e.Label,
				Slot:  es,
				Gen:   gen,
				Props: e.Props,
			})
		}
	}
	if dir == Out || dir == Both {
		walk(db.nodes.FirstOut(slot), db.edges.NextOut)
	}
	if dir == In || dir == Both {
		walk(db.nodes.FirstIn(slot), db.edges.NextIn)
	}
	return out
}

func (g *cypherGraph) NeighborsOut(nodeID uint64) []cypher.NeighborEdge { return g.neighbors(nodeID, Out) }
func (g *cypherGraph) NeighborsIn(nodeID uint64) []cypher.NeighborEdge  { return g.neighbors(nodeID, In) }

func (g *cypherGraph) InsertNode(id uint64, kind uint8, props [128]byte) error {
	_, err := g.asDB().InsertNode(pool.Node{ID: id, Kind: kind, Props: props})
	return err
}

func (g *cypherGraph) InsertEdge(from, to uint64, label uint16, props [64]byte) (uint32, uint32, error) {
	h, err := g.asDB().InsertEdge(from, to, label, props)
	return h.Slot, h.Generation, err
}

func (g *cypherGraph) DeleteNode(id uint64, detach bool) error {
	return g.asDB().DeleteNode(id, detach)
}

func (g *cypherGraph) DeleteEdge(from, to uint64, label uint16) error {
	return g.asDB().DeleteEdge(from, to, label)
}

func (g *cypherGraph) SetNodeProps(id uint64, props [128]byte) error {
	return g.asDB().SetNodeProps(id, props)
}

func (g *cypherGraph) NewNodeID() uint64 { return g.asDB().NewNodeID() }

// KindForLabels maps a node pattern's label list onto the single-byte domain
// tag pool.Node.Kind actually stores. This is necessarily lossy: Cypher
// labels are an open string set, Kind is a fixed uint8. Taking the first
// label's FNV-1a hash mod 256 is deterministic (the same label always maps
// to the same Kind, so label-based MATCH filtering behaves consistently)
// without requiring a separate label registry.
func (g *cypherGraph) KindForLabels(labels []string) uint8 {
	if len(labels) == 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(labels[0]))
	return uint8(h.Sum32())
}

// LabelForType maps a relationship type name onto the uint16 Edge.Label the
// pool stores, via the same deterministic hash strategy as KindForLabels.
func (g *cypherGraph) LabelForType(typeName string) uint16 {
	if typeName == "" {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(typeName))
	return uint16(h.Sum32())
}
