// Package snapshot implements point-in-time serialization and restore of
// NenDB's node/edge/embedding pools, independent of WAL history, exactly as
// spec.md §4.3/§6 fixes the format. Snapshot (and manifest) files are
// written atomically via github.com/natefinch/atomic's temp-file-then-
// rename helper, the same library calvinalkan-agent-task uses for its
// ticket-cache persistence, rather than hand-rolling the rename dance the
// teacher's SaveSnapshot used to do with os.Rename directly.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	natomic "github.com/natefinch/atomic"
	"github.com/nen-co/nendb/internal/nenerr"
)

var magicBytes = [8]byte{'N', 'E', 'N', 'D', '_', 'S', 'N', 'P'}

const version uint16 = 1

const headerSize = 8 + 2 + 8 + 8 + 8 + 4 // magic, version, node/edge/emb counts, emb dim

const (
	nodeRecordSize = 8 + 1 + 128 // id, kind, props
	edgeRecordSize = 8 + 8 + 2 + 64
)

func embeddingRecordSize(dim uint32) int {
	return 8 + 4*int(dim) + 32 // nodeID, vector, metadata
}

// Source is implemented by the GraphDB facade's pool adapters to provide a
// dense, slot-ordered view of live pool contents for writing a snapshot.
type Source interface {
	ForEachNode(fn func(id uint64, kind uint8, props [128]byte))
	ForEachEdge(fn func(from, to uint64, label uint16, props [64]byte))
	ForEachEmbedding(fn func(nodeID uint64, vec []float32, metadata [32]byte))
	Counts() (nodes, edges, embeddings uint64)
	EmbeddingDim() uint32
}

// Loader is implemented by the GraphDB facade to receive records read back
// from a snapshot file. The loader re-allocates slots in encounter order;
// slot indices are not preserved across snapshot/restore, only ids are
// stable, per spec.md §4.3.
type Loader interface {
	LoadNode(id uint64, kind uint8, props [128]byte) error
	LoadEdge(from, to uint64, label uint16, props [64]byte) error
	LoadEmbedding(nodeID uint64, vec []float32, metadata [32]byte) error
}

// Write serializes src into a self-contained snapshot file at path,
// atomically (a concurrent reader never observes a partial file).
func Write(path string, src Source) error {
	nodeCount, edgeCount, embCount := src.Counts()
	dim := src.EmbeddingDim()

	var buf bytes.Buffer
	buf.Write(magicBytes[:])
	writeUint16(&buf, version)
	writeUint64(&buf, nodeCount)
	writeUint64(&buf, edgeCount)
	writeUint64(&buf, embCount)
	writeUint32(&buf, dim)

	src.ForEachNode(func(id uint64, kind uint8, props [128]byte) {
		writeUint64(&buf, id)
		buf.WriteByte(kind)
		buf.Write(props[:])
	})
	src.ForEachEdge(func(from, to uint64, label uint16, props [64]byte) {
		writeUint64(&buf, from)
		writeUint64(&buf, to)
		writeUint16(&buf, label)
		buf.Write(props[:])
	})
	src.ForEachEmbedding(func(nodeID uint64, vec []float32, metadata [32]byte) {
		writeUint64(&buf, nodeID)
		for _, f := range vec {
			writeUint32(&buf, math.Float32bits(f))
		}
		buf.Write(metadata[:])
	})

	if err := natomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// Load reads path and replays its records into loader in file order (node
// records, then edge records, then embedding records), which is also slot
// order for a freshly initialized set of pools.
func Load(path string, loader Loader) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("snapshot: read %s: %w", path, err)
	}

	r := bytes.NewReader(data)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: short snapshot header", nenerr.ErrWalCorrupt)
	}
	if string(header[0:8]) != string(magicBytes[:]) {
		return fmt.Errorf("%w: bad snapshot magic", nenerr.ErrWalCorrupt)
	}
	ver := binary.LittleEndian.Uint16(header[8:10])
	if ver != version {
		return fmt.Errorf("%w: unsupported snapshot version %d", nenerr.ErrWalCorrupt, ver)
	}
	nodeCount := binary.LittleEndian.Uint64(header[10:18])
	edgeCount := binary.LittleEndian.Uint64(header[18:26])
	embCount := binary.LittleEndian.Uint64(header[26:34])
	dim := binary.LittleEndian.Uint32(header[34:38])

	for i := uint64(0); i < nodeCount; i++ {
		rec := make([]byte, nodeRecordSize)
		if _, err := io.ReadFull(r, rec); err != nil {
			return fmt.Errorf("%w: truncated node record %d", nenerr.ErrWalCorrupt, i)
		}
		id := binary.LittleEndian.Uint64(rec[0:8])
		kind := rec[8]
		var props [128]byte
		copy(props[:], rec[9:9+128])
		if err := loader.LoadNode(id, kind, props); err != nil {
			return err
		}
	}

	for i := uint64(0); i < edgeCount; i++ {
		rec := make([]byte, edgeRecordSize)
		if _, err := io.ReadFull(r, rec); err != nil {
			return fmt.Errorf("%w: truncated edge record %d", nenerr.ErrWalCorrupt, i)
		}
		from := binary.LittleEndian.Uint64(rec[0:8])
		to := binary.LittleEndian.Uint64(rec[8:16])
		label := binary.LittleEndian.Uint16(rec[16:18])
		var props [64]byte
		copy(props[:], rec[18:18+64])
		if err := loader.LoadEdge(from, to, label, props); err != nil {
			return err
		}
	}

	embSize := embeddingRecordSize(dim)
	for i := uint64(0); i < embCount; i++ {
		rec := make([]byte, embSize)
		if _, err := io.ReadFull(r, rec); err != nil {
			return fmt.Errorf("%w: truncated embedding record %d", nenerr.ErrWalCorrupt, i)
		}
		nodeID := binary.LittleEndian.Uint64(rec[0:8])
		vec := make([]float32, dim)
		off := 8
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[off : off+4]))
			off += 4
		}
		var metadata [32]byte
		copy(metadata[:], rec[off:off+32])
		if err := loader.LoadEmbedding(nodeID, vec, metadata); err != nil {
			return err
		}
	}

	return nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}
