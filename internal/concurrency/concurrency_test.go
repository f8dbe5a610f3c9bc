package concurrency

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomicCounter(t *testing.T) {
	var c AtomicCounter
	require.EqualValues(t, 1, c.Increment())
	require.EqualValues(t, 2, c.Increment())
	require.EqualValues(t, 1, c.Decrement())
	c.Store(41)
	require.EqualValues(t, 41, c.Load())
}

func TestAtomicIDGeneratorStartsAtSeed(t *testing.T) {
	g := NewAtomicIDGenerator(5)
	require.EqualValues(t, 5, g.Generate())
	require.EqualValues(t, 6, g.Generate())
}

func TestReadWriteLockExcludesWriterFromReaders(t *testing.T) {
	l := NewReadWriteLock()
	l.Lock()
	require.False(t, l.TryRLock())
	l.Unlock()
	require.True(t, l.TryRLock())
	l.RUnlock()
}

func TestReadWriteLockAllowsConcurrentReaders(t *testing.T) {
	l := NewReadWriteLock()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RLock()
			defer l.RUnlock()
		}()
	}
	wg.Wait()
	require.True(t, l.TryLock())
	l.Unlock()
}

func TestSeqlockReadAfterWrite(t *testing.T) {
	var sl Seqlock
	data := 0

	Write(&sl, func() { data = 42 })

	got := Read(&sl, func() int { return data })
	require.Equal(t, 42, got)
}

func TestDeadlockDetectorRejectsReentrantAcquisition(t *testing.T) {
	d := NewDeadlockDetector()
	require.NoError(t, d.Acquire("tx1", 1))
	require.Error(t, d.Acquire("tx1", 1))
	d.Release("tx1", 1)
	require.NoError(t, d.Acquire("tx1", 1))
}

func TestDeadlockDetectorBoundsLockCount(t *testing.T) {
	d := NewDeadlockDetector()
	for i := uint64(0); i < maxLocksPerOwner; i++ {
		require.NoError(t, d.Acquire("tx1", i))
	}
	require.Error(t, d.Acquire("tx1", maxLocksPerOwner))
}

func TestTransactionLifecycle(t *testing.T) {
	tx := Begin(ReadCommitted)
	require.Equal(t, StateActive, tx.State)

	tx.RecordRead(1)
	tx.RecordWrite(2)
	require.ElementsMatch(t, []uint64{1}, tx.ReadSet())
	require.ElementsMatch(t, []uint64{2}, tx.WriteSet())

	require.NoError(t, tx.Prepare())
	require.NoError(t, tx.Commit())
	require.Error(t, tx.Abort())
}

func TestTransactionAbort(t *testing.T) {
	tx := Begin(Serializable)
	require.NoError(t, tx.Abort())
	require.Equal(t, StateAborted, tx.State)
	require.Error(t, tx.Commit())
}
