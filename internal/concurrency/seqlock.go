package concurrency

import "sync/atomic"

// Seqlock is a sequence-counter lock for lock-free reads of small POD
// records (GraphDB stats, in this module). Writers pre-increment the
// sequence to odd before mutating and post-increment it to even after;
// readers capture the sequence, read the data, then re-check it was even
// and unchanged, retrying otherwise.
//
// Memory ordering follows spec.md §9 exactly: acquire on read-begin,
// release on the writer's post-increment. atomic.Load/Store/Add on the same
// uint32 give that ordering under the Go memory model, so no additional
// fences are needed.
type Seqlock struct {
	seq uint32
}

// WriteLock marks the start of a write: the sequence becomes odd, signaling
// concurrent readers to retry.
func (s *Seqlock) WriteLock() {
	atomic.AddUint32(&s.seq, 1)
}

// WriteUnlock marks the end of a write: the sequence becomes even again.
func (s *Seqlock) WriteUnlock() {
	atomic.AddUint32(&s.seq, 1)
}

// ReadBegin spins until the sequence is even (no writer in progress) and
// returns it for a later ReadRetry check.
func (s *Seqlock) ReadBegin() uint32 {
	for {
		seq := atomic.LoadUint32(&s.seq)
		if seq%2 == 0 {
			return seq
		}
	}
}

// ReadRetry reports whether the sequence changed since ReadBegin, meaning
// the reader observed a torn write and must retry.
func (s *Seqlock) ReadRetry(seq uint32) bool {
	return atomic.LoadUint32(&s.seq) != seq
}

// Read runs fn under the seqlock's read protocol, retrying fn until it
// observes a consistent snapshot. fn must be idempotent and side-effect
// free since it may run more than once.
func Read[T any](s *Seqlock, fn func() T) T {
	for {
		seq := s.ReadBegin()
		v := fn()
		if !s.ReadRetry(seq) {
			return v
		}
	}
}

// Write runs fn under the seqlock's write protocol.
func Write(s *Seqlock, fn func()) {
	s.WriteLock()
	fn()
	s.WriteUnlock()
}
