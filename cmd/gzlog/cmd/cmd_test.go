package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/gzlog/internal/adapters/compression"
	"github.com/iamNilotpal/gzlog/internal/core/ports"
)

func writeArchive(t *testing.T, path string, codec ports.Compressor, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := codec.NewWriter(f)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestCatMixesArchivesAndPlainSegments(t *testing.T) {
	dir := t.TempDir()
	gz := filepath.Join(dir, "main.log.2026-10-16.gz")
	zst := filepath.Join(dir, "main.log.2026-10-17.zst")
	plain := filepath.Join(dir, "main.log")

	writeArchive(t, gz, compression.NewGzip(0), "day one\n")
	writeArchive(t, zst, compression.NewZstd(0, 1), "day two\n")
	require.NoError(t, os.WriteFile(plain, []byte("today\n"), 0644))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"cat", gz, zst, plain})

	require.NoError(t, root.Execute())
	assert.Equal(t, "day one\nday two\ntoday\n", out.String())
}

func TestCatRejectsCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.log.1.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0644))

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"cat", path})

	assert.ErrorContains(t, root.Execute(), "error opening archive")
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults with overrides", func(t *testing.T) {
		cfg, err := loadConfig(runOptions{dir: "/tmp/app-logs", metricsAddr: ":9100"})
		require.NoError(t, err)

		assert.Equal(t, "/tmp/app-logs", cfg.Directory)
		assert.True(t, cfg.EnableMetrics)
		assert.True(t, cfg.Capture)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gzlog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("directory: from-file\ncapture: false\n"), 0644))

		cfg, err := loadConfig(runOptions{configPath: path})
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.Directory)
		assert.True(t, cfg.Capture)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(runOptions{configPath: filepath.Join(t.TempDir(), "absent.yaml")})
		assert.Error(t, err)
	})
}

func TestExitError(t *testing.T) {
	assert.EqualError(t, &ExitError{Code: 3}, "exit status 3")
}
