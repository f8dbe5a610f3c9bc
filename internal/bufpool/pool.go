// Package bufpool provides scratch-space byte buffer pooling for NenDB.
//
// This is deliberately separate from internal/pool's fixed-capacity SoA
// pools: bufpool holds transient, garbage-collectable scratch buffers (WAL
// entry framing) that come and go within a single append call, while
// internal/pool holds the database's actual durable node/edge/embedding
// storage.
//
// Usage:
//
//	buf := bufpool.GetByteBuffer()
//	defer bufpool.PutByteBuffer(buf)
package bufpool

import "sync"

// Config configures object pooling behavior.
type Config struct {
	// Enabled controls whether pooling is active.
	Enabled bool

	// MaxSize bounds the capacity (bytes) a buffer may have to be kept,
	// guarding against one unusually large entry retaining a huge backing
	// array forever.
	MaxSize int
}

var globalConfig = Config{
	Enabled: true,
	MaxSize: 1024 * 1024,
}

// Configure sets global pool configuration. Should be called early during
// initialization, before any Get/Put calls.
func Configure(cfg Config) {
	globalConfig = cfg
}

// IsEnabled returns whether pooling is enabled.
func IsEnabled() bool {
	return globalConfig.Enabled
}

var byteBufferPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 256)
	},
}

// GetByteBuffer returns a zero-length byte buffer from the pool, reused
// across WAL entry encodings to avoid one allocation per append.
func GetByteBuffer() []byte {
	if !globalConfig.Enabled {
		return make([]byte, 0, 256)
	}
	return byteBufferPool.Get().([]byte)[:0]
}

// PutByteBuffer returns a byte buffer to the pool. Buffers larger than
// MaxSize are dropped rather than retained, so one oversized WAL entry
// (e.g. a wide embedding dimension) doesn't pin that memory indefinitely.
func PutByteBuffer(buf []byte) {
	if !globalConfig.Enabled {
		return
	}
	if cap(buf) > globalConfig.MaxSize {
		return
	}
	byteBufferPool.Put(buf[:0])
}
