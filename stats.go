package nendb

// GetStats returns a consistent snapshot of pool usage, WAL counters, and
// cached WAL health, per spec.md §4.4. Pool stats are read under the read
// lock; WAL health is read through the seqlock so this never blocks a
// concurrent writer for longer than a handful of instructions.
func (db *GraphDB) GetStats() Stats {
	db.lock.RLock()
	nodes := db.nodes.Stats()
	edges := db.edges.Stats()
	embeddings := db.embeddings.Stats()
	db.lock.RUnlock()

	return Stats{
		Nodes:      nodes,
		Edges:      edges,
		Embeddings: embeddings,
		WAL:        db.w.Stats(),
		WALHealth:  db.health(),
	}
}
