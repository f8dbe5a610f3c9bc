// Package nendb is the embedded graph database engine: statically-sized
// node/edge/embedding pools with a write-ahead log for durability and a
// Cypher subset query surface on top, all under predictable memory and
// latency bounds.
//
// GraphDB is the single entry point (spec.md §4.4). It owns the pools, the
// WAL, and the locks; nothing outside this package touches pool internals
// directly, mirroring the teacher's pkg/nornicdb/db.go Open/lifecycle shape
// re-targeted from "memory store with decay" onto this spec's pools+WAL+
// locks facade.
//
// Example:
//
//	opts := config.Default()
//	opts.DataDir = "./data"
//	db, err := nendb.InitInPlace(opts)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	handle, err := db.InsertNode(pool.Node{ID: 1, Kind: 7})
package nendb

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/nen-co/nendb/internal/concurrency"
	"github.com/nen-co/nendb/internal/config"
	"github.com/nen-co/nendb/internal/logging"
	"github.com/nen-co/nendb/internal/nenerr"
	"github.com/nen-co/nendb/internal/pool"
	"github.com/nen-co/nendb/internal/snapshot"
	"github.com/nen-co/nendb/internal/wal"
	"github.com/rs/zerolog"
)

const (
	walFileName      = "nendb.wal"
	manifestFileName = "nendb.manifest"
)

func snapshotFileName(seq uint64) string {
	return fmt.Sprintf("nendb.snap.%d", seq)
}

// NodeHandle is the (slot, generation) pair returned by InsertNode, per
// spec.md §4.1.
type NodeHandle struct {
	Slot       uint32
	Generation uint32
}

// EdgeHandle is the (slot, generation) pair returned by InsertEdge.
type EdgeHandle struct {
	Slot       uint32
	Generation uint32
}

// Direction selects which adjacency list Neighbors walks.
type Direction int

const (
	Out Direction = iota
	In
	Both
)

// WALHealth mirrors the wal_health section of GetStats(), read through a
// Seqlock so a caller never blocks a concurrent writer for it (spec.md
// §4.4's enrichment over the plain contract in spec.md §4.4).
type WALHealth struct {
	Healthy      bool
	IOErrorCount uint64
}

// Stats is the full return value of GetStats().
type Stats struct {
	Nodes      pool.Stats
	Edges      pool.Stats
	Embeddings pool.Stats
	WAL        wal.Stats
	WALHealth  WALHealth
}

// GraphDB is the engine's single entry point: pools, id index, WAL,
// snapshot policy, locks, and per-pool statistics (spec.md §4.4).
type GraphDB struct {
	opts config.Options

	nodes      *pool.NodePool
	edges      *pool.EdgePool
	embeddings *pool.EmbeddingPool

	w *wal.WAL

	lock       *concurrency.ReadWriteLock
	healthSeq  concurrency.Seqlock
	cachedHealth WALHealth

	opsSinceSnapshot uint64
	snapshotSeq      uint64

	nextGeneratedID atomic.Uint64

	logger zerolog.Logger
	closed atomic.Bool
}

// InitInPlace creates a fresh database directory at opts.DataDir: an empty
// WAL (header only) and no snapshot or manifest yet. It fails if the
// directory already contains a WAL file — use OpenInPlace to reopen an
// existing database.
func InitInPlace(opts config.Options) (*GraphDB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.ReadOnly {
		return nil, nenerr.ErrReadOnly
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("nendb: create data dir: %w", err)
	}
	walPath := filepath.Join(opts.DataDir, walFileName)
	if _, err := os.Stat(walPath); err == nil {
		return nil, fmt.Errorf("nendb: %s already exists, use OpenInPlace", walPath)
	}
	return open(opts, false)
}

// OpenInPlace reopens an existing read-write database at opts.DataDir,
// loading the active snapshot (if a manifest points to one) and replaying
// the WAL tail on top of it.
func OpenInPlace(opts config.Options) (*GraphDB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.ReadOnly {
		return nil, nenerr.ErrReadOnly
	}
	return open(opts, false)
}

// OpenReadOnly opens an existing database at opts.DataDir refusing WAL
// appends and snapshots.
func OpenReadOnly(opts config.Options) (*GraphDB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.ReadOnly = true
	return open(opts, true)
}

func open(opts config.Options, readOnly bool) (*GraphDB, error) {
	logger := logging.New("graphdb", logging.Config{Level: logging.InfoLevel})

	db := &GraphDB{
		opts:       opts,
		nodes:      pool.NewNodePool(int(opts.NodeCapacity)),
		edges:      pool.NewEdgePool(int(opts.EdgeCapacity)),
		embeddings: pool.NewEmbeddingPool(int(opts.EmbeddingCapacity), opts.EmbeddingDim),
		lock:       concurrency.NewReadWriteLock(),
		logger:     logger,
	}
	db.cachedHealth = WALHealth{Healthy: true}

	manifestPath := filepath.Join(opts.DataDir, manifestFileName)
	if m, err := readManifest(manifestPath); err == nil {
		snapPath := filepath.Join(opts.DataDir, snapshotFileName(m.ActiveSnapshotSeq))
		if err := snapshot.Load(snapPath, (*snapshotLoader)(db)); err != nil {
			return nil, fmt.Errorf("nendb: load snapshot %s: %w", snapPath, err)
		}
		db.snapshotSeq = m.ActiveSnapshotSeq
		logger.Info().Uint64("seq", m.ActiveSnapshotSeq).Msg("restored snapshot")
	}

	walPath := filepath.Join(opts.DataDir, walFileName)
	w, err := wal.Open(walPath, opts.WALBufferSize, opts.EmbeddingDim, (*walApplier)(db), logger)
	if err != nil {
		return nil, fmt.Errorf("nendb: open wal: %w", err)
	}
	db.w = w

	return db, nil
}

// Close flushes and closes the WAL. It is safe to call more than once.
func (db *GraphDB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}
	return db.w.Close()
}

func (db *GraphDB) setHealth(h WALHealth) {
	concurrency.Write(&db.healthSeq, func() { db.cachedHealth = h })
}

func (db *GraphDB) health() WALHealth {
	return concurrency.Read(&db.healthSeq, func() WALHealth { return db.cachedHealth })
}
