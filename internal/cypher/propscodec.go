package cypher

import (
	"encoding/binary"
	"math"
	"sort"
)

// Property tags for the packed encoding below.
const (
	tagNull = iota
	tagBool
	tagInt
	tagFloat
	tagString
)

// encodeProps packs a property map into a fixed-size blob in sorted-key
// order: each entry is `keyLen:u8, key, tag:u8, payload`. A zero keyLen
// terminates the list (the zero-initialized remainder of buf already reads
// as a keyLen-0 terminator). Node/Edge props are a client-defined fixed
// blob per spec.md §3; once an entry would overflow the remaining space,
// this executor stops rather than erroring the whole mutation, since a
// smaller prefix of the requested properties is still a valid props blob.
func encodeProps(m map[string]Value, size int) []byte {
	buf := make([]byte, size)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	off := 0
	for _, k := range keys {
		entry := encodePropEntry(k, m[k])
		if off+len(entry) > size-1 { // leave room for the terminator byte
			break
		}
		copy(buf[off:], entry)
		off += len(entry)
	}
	return buf
}

func encodePropEntry(key string, v Value) []byte {
	if len(key) > 255 {
		key = key[:255]
	}
	var payload []byte
	tag := byte(tagNull)
	switch v.Kind {
	case VBool:
		tag = tagBool
		if v.Bool {
			payload = []byte{1}
		} else {
			payload = []byte{0}
		}
	case VInt64:
		tag = tagInt
		payload = make([]byte, 8)
		binary.LittleEndian.PutUint64(payload, uint64(v.Int))
	case VFloat64:
		tag = tagFloat
		payload = make([]byte, 8)
		binary.LittleEndian.PutUint64(payload, math.Float64bits(v.Float))
	case VText:
		tag = tagString
		s := v.Text
		if len(s) > 65535 {
			s = s[:65535]
		}
		lenBuf := make([]byte, 2)
		binary.LittleEndian.PutUint16(lenBuf, uint16(len(s)))
		payload = append(lenBuf, s...)
	default:
		tag = tagNull
	}

	entry := make([]byte, 0, 2+len(key)+len(payload))
	entry = append(entry, byte(len(key)))
	entry = append(entry, key...)
	entry = append(entry, tag)
	entry = append(entry, payload...)
	return entry
}

// decodeProps unpacks a props blob written by encodeProps.
func decodeProps(buf []byte) map[string]Value {
	m := map[string]Value{}
	off := 0
	for off < len(buf) {
		keyLen := int(buf[off])
		if keyLen == 0 {
			break
		}
		off++
		if off+keyLen > len(buf) {
			break
		}
		key := string(buf[off : off+keyLen])
		off += keyLen
		if off >= len(buf) {
			break
		}
		tag := buf[off]
		off++

		switch tag {
		case tagBool:
			if off >= len(buf) {
				return m
			}
			m[key] = Bool(buf[off] != 0)
			off++
		case tagInt:
			if off+8 > len(buf) {
				return m
			}
			m[key] = Int(int64(binary.LittleEndian.Uint64(buf[off : off+8])))
			off += 8
		case tagFloat:
			if off+8 > len(buf) {
				return m
			}
			m[key] = Float(math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8])))
			off += 8
		case tagString:
			if off+2 > len(buf) {
				return m
			}
			slen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
			off += 2
			if off+slen > len(buf) {
				return m
			}
			m[key] = Text(string(buf[off : off+slen]))
			off += slen
		default:
			m[key] = Null()
		}
	}
	return m
}
