package nendb

import (
	"fmt"
	"path/filepath"

	"github.com/nen-co/nendb/internal/nenerr"
	"github.com/nen-co/nendb/internal/snapshot"
)

// Snapshot takes a point-in-time snapshot of the live pools under an
// exclusive write lock (spec.md §4.3), then truncates the WAL back to its
// header and records the new active sequence in the manifest. Because the
// WAL only ever holds the tail since the last snapshot, there is nothing
// else for the manifest to track.
func (db *GraphDB) Snapshot() error {
	if db.opts.ReadOnly {
		return nenerr.ErrReadOnly
	}
	db.lock.Lock()
	defer db.lock.Unlock()
	return db.snapshotLocked()
}

// snapshotLocked assumes the write lock is already held; it backs both the
// public Snapshot() and the automatic cadence trigger in afterMutation().
func (db *GraphDB) snapshotLocked() error {
	seq := db.snapshotSeq + 1
	path := filepath.Join(db.opts.DataDir, snapshotFileName(seq))

	if err := snapshot.Write(path, (*snapshotSource)(db)); err != nil {
		return fmt.Errorf("nendb: snapshot: %w", err)
	}
	if err := db.w.Reset(); err != nil {
		return fmt.Errorf("nendb: snapshot: reset wal: %w", err)
	}

	manifestPath := filepath.Join(db.opts.DataDir, manifestFileName)
	if err := writeManifest(manifestPath, manifest{ActiveSnapshotSeq: seq}); err != nil {
		return fmt.Errorf("nendb: snapshot: %w", err)
	}

	db.snapshotSeq = seq
	db.opsSinceSnapshot = 0
	db.logger.Info().Uint64("seq", seq).Msg("snapshot complete")
	return nil
}

// RestoreFromSnapshot loads the snapshot file at path into this database.
// The pools must be empty (a freshly init'd database, or one explicitly
// cleared); otherwise this fails with nenerr.ErrNotEmpty, per spec.md §4.3.
func (db *GraphDB) RestoreFromSnapshot(path string) error {
	if db.opts.ReadOnly {
		return nenerr.ErrReadOnly
	}
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.nodes.Stats().Used != 0 || db.edges.Stats().Used != 0 || db.embeddings.Stats().Used != 0 {
		return nenerr.ErrNotEmpty
	}

	if err := snapshot.Load(path, (*snapshotLoader)(db)); err != nil {
		return fmt.Errorf("nendb: restore: %w", err)
	}
	return nil
}
