package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nen-co/nendb/internal/logging"
	"github.com/nen-co/nendb/internal/nenerr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingApplier struct {
	insertedNodes []uint64
	deletedNodes  []uint64
	insertedEdges int
	deletedEdges  int
	setProps      int
	embeddings    int
}

func (a *recordingApplier) ApplyInsertNode(id uint64, kind uint8, props [128]byte) error {
	a.insertedNodes = append(a.insertedNodes, id)
	return nil
}
func (a *recordingApplier) ApplyDeleteNode(id uint64) error {
	a.deletedNodes = append(a.deletedNodes, id)
	return nil
}
func (a *recordingApplier) ApplyInsertEdge(from, to uint64, label uint16, props [64]byte) error {
	a.insertedEdges++
	return nil
}
func (a *recordingApplier) ApplyDeleteEdge(from, to uint64, label uint16) error {
	a.deletedEdges++
	return nil
}
func (a *recordingApplier) ApplySetNodeProps(id uint64, props [128]byte) error {
	a.setProps++
	return nil
}
func (a *recordingApplier) ApplyEmbeddingUpsert(id uint64, vec []float32) error {
	a.embeddings++
	return nil
}

func testLogger() zerolog.Logger {
	return logging.Discard()
}

func TestWALWriteHeaderOnFreshFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nendb.wal")

	w, err := Open(path, 4096, 8, &recordingApplier{}, testLogger())
	require.NoError(t, err)
	defer w.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, headerSize)
	require.Equal(t, []byte{0x4E, 0x45, 0x4E, 0x44, 0x01, 0x00}, data)
}

func TestWALAppendAndRecover(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nendb.wal")

	w, err := Open(path, 4096, 4, &recordingApplier{}, testLogger())
	require.NoError(t, err)

	require.NoError(t, w.AppendInsertNode(1, 7, [128]byte{}))
	require.NoError(t, w.AppendInsertEdge(1, 2, 5, [64]byte{}))
	require.NoError(t, w.AppendEmbeddingUpsert(1, []float32{1, 2, 3, 4}))
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	applier := &recordingApplier{}
	w2, err := Open(path, 4096, 4, applier, testLogger())
	require.NoError(t, err)
	defer w2.Close()

	require.Equal(t, []uint64{1}, applier.insertedNodes)
	require.Equal(t, 1, applier.insertedEdges)
	require.Equal(t, 1, applier.embeddings)

	stats := w2.Stats()
	require.EqualValues(t, 3, stats.EntriesWritten)
	require.True(t, stats.Healthy)
}

func TestWALRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nendb.wal")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00}, 0o644))

	_, err := Open(path, 4096, 4, &recordingApplier{}, testLogger())
	require.ErrorIs(t, err, nenerr.ErrWalCorrupt)
}

func TestWALTruncatesIncompleteFinalEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nendb.wal")

	w, err := Open(path, 4096, 4, &recordingApplier{}, testLogger())
	require.NoError(t, err)
	require.NoError(t, w.AppendInsertNode(1, 7, [128]byte{}))
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	// Append a partial second entry (op byte + a few bytes, short of the
	// full InsertNode payload) to simulate a crash mid-write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{byte(OpInsertNode), 0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	applier := &recordingApplier{}
	w2, err := Open(path, 4096, 4, applier, testLogger())
	require.NoError(t, err)
	defer w2.Close()

	require.Equal(t, []uint64{1}, applier.insertedNodes)
	stats := w2.Stats()
	require.EqualValues(t, 1, stats.Truncations)
}

func TestWALUnknownOpStopsRecovery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nendb.wal")

	w, err := Open(path, 4096, 4, &recordingApplier{}, testLogger())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{99, 0x00})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path, 4096, 4, &recordingApplier{}, testLogger())
	require.ErrorIs(t, err, nenerr.ErrUnknownOp)
}
