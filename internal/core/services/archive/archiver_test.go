package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/gzlog/internal/adapters/compression"
	fsadapter "github.com/iamNilotpal/gzlog/internal/adapters/fs"
	"github.com/iamNilotpal/gzlog/internal/core/ports"
	logerrors "github.com/iamNilotpal/gzlog/pkg/errors"
)

var errDiskFull = errors.New("no space left on device")

// faultyFS fails archive writes or source removal on demand.
type faultyFS struct {
	*fsadapter.LocalFileSystem
	failWriteAfter int
	failRemove     string
}

func (f *faultyFS) Create(path string) (ports.WritableFile, error) {
	file, err := f.LocalFileSystem.Create(path)
	if err != nil || f.failWriteAfter < 0 {
		return file, err
	}
	return &failingFile{WritableFile: file, remaining: f.failWriteAfter}, nil
}

func (f *faultyFS) Remove(path string) error {
	if path == f.failRemove {
		return os.ErrPermission
	}
	return f.LocalFileSystem.Remove(path)
}

type failingFile struct {
	ports.WritableFile
	remaining int
}

func (f *failingFile) Write(p []byte) (int, error) {
	if len(p) > f.remaining {
		n, _ := f.WritableFile.Write(p[:f.remaining])
		f.remaining = 0
		return n, errDiskFull
	}
	f.remaining -= len(p)
	return f.WritableFile.Write(p)
}

func newArchiver(t *testing.T, fs ports.FileSystem, verify bool) *Archiver {
	t.Helper()
	a, err := New(Options{Compressor: compression.NewGzip(0), FS: fs, Verify: verify})
	require.NoError(t, err)
	return a
}

func writeSegment(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.log.2026-10-18")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readArchive(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := compression.NewGzip(0).NewReader(f)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestNew(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, logerrors.IsValidationError(err))
}

func TestArchive(t *testing.T) {
	t.Run("compresses and removes the plain segment", func(t *testing.T) {
		content := strings.Repeat("2026-10-18 10:00:00 - INFO - hello\n", 50)
		path := writeSegment(t, content)
		a := newArchiver(t, nil, true)

		require.NoError(t, a.Archive(context.Background(), path))

		assert.NoFileExists(t, path)
		assert.FileExists(t, path+".gz")
		assert.Equal(t, content, readArchive(t, path+".gz"))
	})

	t.Run("empty segment round trips", func(t *testing.T) {
		path := writeSegment(t, "")
		a := newArchiver(t, nil, true)

		require.NoError(t, a.Archive(context.Background(), path))
		assert.Equal(t, "", readArchive(t, path+".gz"))
	})

	t.Run("missing path is a no-op", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gone.log.1")
		a := newArchiver(t, nil, false)

		require.NoError(t, a.Archive(context.Background(), path))
		assert.NoFileExists(t, path)
		assert.NoFileExists(t, path+".gz")
	})

	t.Run("second call after success is a no-op", func(t *testing.T) {
		path := writeSegment(t, "once\n")
		a := newArchiver(t, nil, false)

		require.NoError(t, a.Archive(context.Background(), path))
		require.NoError(t, a.Archive(context.Background(), path))
		assert.Equal(t, "once\n", readArchive(t, path+".gz"))
	})

	t.Run("overwrites a stale twin", func(t *testing.T) {
		path := writeSegment(t, "fresh content\n")
		require.NoError(t, os.WriteFile(path+".gz", []byte("stale garbage"), 0644))
		a := newArchiver(t, nil, true)

		require.NoError(t, a.Archive(context.Background(), path))
		assert.NoFileExists(t, path)
		assert.Equal(t, "fresh content\n", readArchive(t, path+".gz"))
	})

	t.Run("zstd archives use the zst suffix", func(t *testing.T) {
		path := writeSegment(t, "zstd content\n")
		a, err := New(Options{Compressor: compression.NewZstd(0, 1)})
		require.NoError(t, err)

		require.NoError(t, a.Archive(context.Background(), path))
		assert.FileExists(t, path+".zst")
		assert.NoFileExists(t, path)
	})
}

func TestArchiveKeepsSegmentOnCompressionFailure(t *testing.T) {
	content := strings.Repeat("payload that must survive\n", 2000)
	path := writeSegment(t, content)
	fs := &faultyFS{LocalFileSystem: fsadapter.NewLocalFileSystem(), failWriteAfter: 16}
	a := newArchiver(t, fs, false)

	err := a.Archive(context.Background(), path)
	require.Error(t, err)
	assert.True(t, logerrors.IsCategory(err, logerrors.ErrorCompression))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, content, string(data))
	assert.NoFileExists(t, path+".gz")

	// A retry once the disk recovers completes the archive.
	fs.failWriteAfter = -1
	require.NoError(t, a.Archive(context.Background(), path))
	assert.NoFileExists(t, path)
	assert.Equal(t, content, readArchive(t, path+".gz"))
}

func TestArchiveReportsCleanupFailure(t *testing.T) {
	path := writeSegment(t, "duplicated but not lost\n")
	fs := &faultyFS{LocalFileSystem: fsadapter.NewLocalFileSystem(), failWriteAfter: -1, failRemove: path}
	a := newArchiver(t, fs, false)

	err := a.Archive(context.Background(), path)
	require.Error(t, err)
	assert.True(t, logerrors.IsCategory(err, logerrors.ErrorCleanup))

	var le *logerrors.LogError
	require.ErrorAs(t, err, &le)
	assert.False(t, le.IsRetryAble())

	assert.FileExists(t, path)
	assert.Equal(t, "duplicated but not lost\n", readArchive(t, path+".gz"))
}

func TestArchiveConcurrentSamePath(t *testing.T) {
	content := strings.Repeat("x", 128*1024)
	path := writeSegment(t, content)
	a := newArchiver(t, nil, true)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = a.Archive(context.Background(), path)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.NoFileExists(t, path)
	assert.Equal(t, content, readArchive(t, path+".gz"))
	assert.Empty(t, a.locks)
}

func TestArchiveCancelledContext(t *testing.T) {
	path := writeSegment(t, "kept\n")
	a := newArchiver(t, nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Archive(ctx, path)
	require.Error(t, err)
	assert.FileExists(t, path)
}
