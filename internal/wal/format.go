package wal

import (
	"encoding/binary"
	"math"
)

// Header bytes, exactly as spec.md §6 fixes them: magic 0x4E 0x45 0x4E 0x44
// ("NEND"), version 0x01 0x00 (little-endian u16 0x0001).
var (
	magicBytes   = [4]byte{0x4E, 0x45, 0x4E, 0x44}
	versionBytes = [2]byte{0x01, 0x00}
)

const headerSize = 6

// Op enumerates the WAL entry op codes from spec.md §4.2.
type Op uint8

const (
	OpInsertNode      Op = 1
	OpDeleteNode      Op = 2
	OpInsertEdge      Op = 3
	OpDeleteEdge      Op = 4
	OpSetNodeProps    Op = 5
	OpEmbeddingUpsert Op = 6
)

// Fixed payload sizes (bytes after the op byte), excluding EmbeddingUpsert
// whose payload size depends on the configured embedding dimension.
const (
	insertNodePayload   = 8 + 1 + 7 + 128 // id, kind, pad, props
	deleteNodePayload   = 8               // id
	insertEdgePayload   = 8 + 8 + 2 + 64  // from, to, label, props
	deleteEdgePayload   = 8 + 8 + 2       // from, to, label
	setNodePropsPayload = 8 + 128         // id, props
)

func embeddingUpsertPayload(dim uint32) int {
	return 8 + 4*int(dim) // id, vec
}

// encode* functions append the framed entry onto dst (typically a
// bufpool-leased scratch buffer, see WAL.appendRaw callers) and return the
// grown slice; dst is assumed empty on entry.

func encodeInsertNode(dst []byte, id uint64, kind uint8, props [128]byte) []byte {
	buf := grow(dst, 1+insertNodePayload)
	buf[0] = byte(OpInsertNode)
	binary.LittleEndian.PutUint64(buf[1:9], id)
	buf[9] = kind
	// buf[10:17] is the 7-byte pad, zeroed since dst may be a reused buffer.
	clear(buf[10:17])
	copy(buf[17:17+128], props[:])
	return buf
}

func encodeDeleteNode(dst []byte, id uint64) []byte {
	buf := grow(dst, 1+deleteNodePayload)
	buf[0] = byte(OpDeleteNode)
	binary.LittleEndian.PutUint64(buf[1:9], id)
	return buf
}

func encodeInsertEdge(dst []byte, from, to uint64, label uint16, props [64]byte) []byte {
	buf := grow(dst, 1+insertEdgePayload)
	buf[0] = byte(OpInsertEdge)
	binary.LittleEndian.PutUint64(buf[1:9], from)
	binary.LittleEndian.PutUint64(buf[9:17], to)
	binary.LittleEndian.PutUint16(buf[17:19], label)
	copy(buf[19:19+64], props[:])
	return buf
}

func encodeDeleteEdge(dst []byte, from, to uint64, label uint16) []byte {
	buf := grow(dst, 1+deleteEdgePayload)
	buf[0] = byte(OpDeleteEdge)
	binary.LittleEndian.PutUint64(buf[1:9], from)
	binary.LittleEndian.PutUint64(buf[9:17], to)
	binary.LittleEndian.PutUint16(buf[17:19], label)
	return buf
}

func encodeSetNodeProps(dst []byte, id uint64, props [128]byte) []byte {
	buf := grow(dst, 1+setNodePropsPayload)
	buf[0] = byte(OpSetNodeProps)
	binary.LittleEndian.PutUint64(buf[1:9], id)
	copy(buf[9:9+128], props[:])
	return buf
}

func encodeEmbeddingUpsert(dst []byte, id uint64, vec []float32) []byte {
	buf := grow(dst, 1+embeddingUpsertPayload(uint32(len(vec))))
	buf[0] = byte(OpEmbeddingUpsert)
	binary.LittleEndian.PutUint64(buf[1:9], id)
	off := 9
	for _, f := range vec {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
		off += 4
	}
	return buf
}

// grow returns dst extended to length n, reusing its backing array when it
// already has enough capacity (the common case when dst came from
// internal/bufpool).
func grow(dst []byte, n int) []byte {
	if cap(dst) >= n {
		return dst[:n]
	}
	return make([]byte, n)
}

func decodeInsertNode(payload []byte) (id uint64, kind uint8, props [128]byte) {
	id = binary.LittleEndian.Uint64(payload[0:8])
	kind = payload[8]
	copy(props[:], payload[16:16+128])
	return
}

func decodeDeleteNode(payload []byte) (id uint64) {
	return binary.LittleEndian.Uint64(payload[0:8])
}

func decodeInsertEdge(payload []byte) (from, to uint64, label uint16, props [64]byte) {
	from = binary.LittleEndian.Uint64(payload[0:8])
	to = binary.LittleEndian.Uint64(payload[8:16])
	label = binary.LittleEndian.Uint16(payload[16:18])
	copy(props[:], payload[18:18+64])
	return
}

func decodeDeleteEdge(payload []byte) (from, to uint64, label uint16) {
	from = binary.LittleEndian.Uint64(payload[0:8])
	to = binary.LittleEndian.Uint64(payload[8:16])
	label = binary.LittleEndian.Uint16(payload[16:18])
	return
}

func decodeSetNodeProps(payload []byte) (id uint64, props [128]byte) {
	id = binary.LittleEndian.Uint64(payload[0:8])
	copy(props[:], payload[8:8+128])
	return
}

func decodeEmbeddingUpsert(payload []byte, dim uint32) (id uint64, vec []float32) {
	id = binary.LittleEndian.Uint64(payload[0:8])
	vec = make([]float32, dim)
	off := 8
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
		off += 4
	}
	return
}
