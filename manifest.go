package nendb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	natomic "github.com/natefinch/atomic"
)

// manifest is the tiny pointer spec.md §6 describes: which snapshot is
// currently active. Since a successful Snapshot() also truncates the WAL
// back to just its header (see snapshot_ops.go), the WAL always contains
// exactly the tail since the active snapshot — there is no separate replay
// offset to record.
type manifest struct {
	ActiveSnapshotSeq uint64
}

func readManifest(path string) (manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest{}, err
	}
	if len(data) != 8 {
		return manifest{}, fmt.Errorf("nendb: malformed manifest %s", path)
	}
	return manifest{ActiveSnapshotSeq: binary.LittleEndian.Uint64(data)}, nil
}

func writeManifest(path string, m manifest) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, m.ActiveSnapshotSeq)
	if err := natomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("nendb: write manifest %s: %w", path, err)
	}
	return nil
}
