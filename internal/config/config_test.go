package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValidOnceDataDirSet(t *testing.T) {
	opts := Default()
	opts.DataDir = t.TempDir()
	require.NoError(t, opts.Validate())
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nendb.yaml")
	contents := "data_dir: " + dir + "\nnode_capacity: 128\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(128), opts.NodeCapacity)
	require.Equal(t, uint64(DefaultEdgeCapacity), opts.EdgeCapacity)
}

func TestValidateRejectsZeroCapacity(t *testing.T) {
	opts := Default()
	opts.DataDir = t.TempDir()
	opts.NodeCapacity = 0
	require.Error(t, opts.Validate())
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	opts := Default()
	require.Error(t, opts.Validate())
}
