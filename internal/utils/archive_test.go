package utils

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func untarNames(t *testing.T, data []byte) []string {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	tr := tar.NewReader(gz)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	return names
}

func TestTarGzDir_ArchivesFilesAndNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.log"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.log"), []byte("world"), 0o644))

	data, err := TarGzDir(dir, nil)
	require.NoError(t, err)

	names := untarNames(t, data)
	assert.Contains(t, names, "a.log")
	assert.Contains(t, names, "sub")
	assert.Contains(t, names, filepath.Join("sub", "b.log"))
}

func TestTarGzDir_ExcludesTopLevelEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.log"), []byte("keep"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "skip"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip", "inner.log"), []byte("skip"), 0o644))

	data, err := TarGzDir(dir, map[string]struct{}{"skip": {}})
	require.NoError(t, err)

	names := untarNames(t, data)
	assert.Contains(t, names, "keep.log")
	assert.NotContains(t, names, "skip")
	assert.NotContains(t, names, filepath.Join("skip", "inner.log"))
}

func TestTarGzDir_MissingDirReturnsError(t *testing.T) {
	_, err := TarGzDir(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	assert.Error(t, err)
}
