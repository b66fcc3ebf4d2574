package downloader

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("download me"), 0644))

	d := NewLocalDownloader()

	t.Run("file", func(t *testing.T) {
		rc, info, err := d.Download(path)
		require.NoError(t, err)
		defer rc.Close()

		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "download me", string(content))
		assert.Equal(t, "notes.txt", info.Name)
		assert.Equal(t, int64(11), info.Size)
		assert.False(t, info.IsDir)
	})

	t.Run("directory", func(t *testing.T) {
		_, _, err := d.Download(dir)
		assert.ErrorIs(t, err, ErrIsDirectory)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := d.Download(filepath.Join(dir, "missing"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDownloadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("readme"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "pkg", "main.go"), []byte("package main"), 0644))

	d := NewLocalDownloader()
	rc, info, err := d.DownloadDir(dir)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, "project.zip", info.Name)
	assert.True(t, info.IsDir)
	assert.Equal(t, int64(-1), info.Size)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	contents := map[string]string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		r, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(r)
		require.NoError(t, err)
		r.Close()
		contents[f.Name] = string(b)
	}
	sort.Strings(names)

	assert.Equal(t, []string{"README", "src/", "src/pkg/", "src/pkg/main.go"}, names)
	assert.Equal(t, "package main", contents["src/pkg/main.go"])
	assert.Equal(t, "readme", contents["README"])
}

func TestDownloadDirOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, _, err := NewLocalDownloader().DownloadDir(path)
	assert.Error(t, err)
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	info, err := NewLocalDownloader().Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir)

	_, err = NewLocalDownloader().Stat(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
