package bufpool

import "testing"

func TestByteBufferRoundTrip(t *testing.T) {
	Configure(Config{Enabled: true, MaxSize: 1024 * 1024})

	buf := GetByteBuffer()
	if len(buf) != 0 {
		t.Fatalf("expected empty buffer, got len %d", len(buf))
	}
	buf = append(buf, 1, 2, 3)
	PutByteBuffer(buf)

	buf2 := GetByteBuffer()
	if len(buf2) != 0 {
		t.Fatalf("expected reset buffer, got len %d", len(buf2))
	}
}

func TestByteBufferDiscardsOversize(t *testing.T) {
	Configure(Config{Enabled: true, MaxSize: 1024 * 1024})

	big := make([]byte, 2*1024*1024)
	PutByteBuffer(big) // must not panic; silently dropped

	buf := GetByteBuffer()
	if cap(buf) > 2*1024*1024 {
		t.Fatalf("did not expect the oversized buffer back")
	}
}

func TestDisabledBypassesPool(t *testing.T) {
	Configure(Config{Enabled: false})
	defer Configure(Config{Enabled: true, MaxSize: 1024 * 1024})

	buf := GetByteBuffer()
	if buf == nil {
		t.Fatalf("expected non-nil buffer even when disabled")
	}
}
