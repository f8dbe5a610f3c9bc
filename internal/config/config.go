// Package config holds the recognized configuration options for opening a
// NenDB database, loadable either as a YAML file (for deployments that want
// a config file on disk) or as a programmatic Options literal, generalized
// from the teacher's env-var-driven config.Config into the fixed option set
// spec.md §5/§6 names.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults mirror spec.md §5/§9: "defaults are compile-time constants;
// overrides are passed at open."
const (
	DefaultNodeCapacity      = 1 << 20
	DefaultEdgeCapacity      = 1 << 21
	DefaultEmbeddingCapacity = 1 << 18
	DefaultEmbeddingDim      = 256
	DefaultWALBufferSize     = 64 * 1024
	DefaultSnapshotEveryOps  = 10000
	DefaultWALSegmentSize    = 64 * 1024 * 1024
	DefaultMaxWALSegments    = 8
)

// Options carries every field spec.md §5/§6 names as recognized by open_*.
type Options struct {
	// DataDir is the directory containing the WAL/snapshot/manifest files.
	DataDir string `yaml:"data_dir"`

	// ReadOnly refuses WAL appends and snapshots when true.
	ReadOnly bool `yaml:"read_only"`

	NodeCapacity      uint64 `yaml:"node_capacity"`
	EdgeCapacity      uint64 `yaml:"edge_capacity"`
	EmbeddingCapacity uint64 `yaml:"embedding_capacity"`
	EmbeddingDim      uint32 `yaml:"embedding_dim"`

	WALBufferSize    int    `yaml:"wal_buffer_size"`
	SnapshotEveryOps uint64 `yaml:"snapshot_every_ops"`
	WALSegmentSize   int64  `yaml:"wal_segment_size"`
	MaxWALSegments   int    `yaml:"max_wal_segments"`
}

// Default returns an Options populated with the compile-time defaults and
// no DataDir (callers must set one).
func Default() Options {
	return Options{
		NodeCapacity:      DefaultNodeCapacity,
		EdgeCapacity:      DefaultEdgeCapacity,
		EmbeddingCapacity: DefaultEmbeddingCapacity,
		EmbeddingDim:      DefaultEmbeddingDim,
		WALBufferSize:     DefaultWALBufferSize,
		SnapshotEveryOps:  DefaultSnapshotEveryOps,
		WALSegmentSize:    DefaultWALSegmentSize,
		MaxWALSegments:    DefaultMaxWALSegments,
	}
}

// Load reads an Options from a YAML file, starting from Default() so a
// partial file only overrides the fields it sets.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks that the option set is internally consistent. Pools are
// never resized at runtime (spec.md §4.8 Non-goals: dynamic pool growth), so
// a zero capacity is a configuration error rather than "unbounded."
func (o Options) Validate() error {
	if o.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if o.NodeCapacity == 0 {
		return fmt.Errorf("config: node_capacity must be > 0")
	}
	if o.EdgeCapacity == 0 {
		return fmt.Errorf("config: edge_capacity must be > 0")
	}
	if o.EmbeddingCapacity == 0 {
		return fmt.Errorf("config: embedding_capacity must be > 0")
	}
	if o.EmbeddingDim == 0 {
		return fmt.Errorf("config: embedding_dim must be > 0")
	}
	if o.WALBufferSize <= 0 {
		return fmt.Errorf("config: wal_buffer_size must be > 0")
	}
	if o.MaxWALSegments <= 0 {
		return fmt.Errorf("config: max_wal_segments must be > 0")
	}
	return nil
}
