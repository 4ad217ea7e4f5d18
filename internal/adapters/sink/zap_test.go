package sink

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/iamNilotpal/gzlog/internal/core/services/rotation"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time                         { return c.t }
func (c fixedClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

var at = time.Date(2026, 10, 18, 9, 30, 0, 123_000_000, time.Local)

func openFile(t *testing.T, name string) *rotation.File {
	t.Helper()
	f, err := rotation.Open(rotation.Options{Path: filepath.Join(t.TempDir(), name)})
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

type fullDisk struct {
	writes atomic.Int64
}

func (f *fullDisk) Write(p []byte) (int, error) {
	f.writes.Add(1)
	return 0, errors.New("no space left on device")
}

func (f *fullDisk) Sync() error  { return nil }
func (f *fullDisk) Path() string { return "/var/log/app/stderr.log" }

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewRequiresFile(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestRecordLayout(t *testing.T) {
	file := openFile(t, "main.log")
	z, err := New(Options{File: file, Level: zapcore.InfoLevel, Clock: fixedClock{at}})
	require.NoError(t, err)

	z.Log(zapcore.InfoLevel, "service started")
	z.Log(zapcore.ErrorLevel, "connection lost")
	require.NoError(t, z.Sync())

	assert.Equal(t,
		"2026-10-18 09:30:00,123 - INFO - service started\n"+
			"2026-10-18 09:30:00,123 - ERROR - connection lost\n",
		read(t, file.Path()),
	)
	assert.Equal(t, file.Path(), z.FilePath())
}

func TestLevelFiltersFileRecords(t *testing.T) {
	file := openFile(t, "stderr.log")
	z, err := New(Options{File: file, Level: zapcore.ErrorLevel, Clock: fixedClock{at}})
	require.NoError(t, err)

	z.Log(zapcore.InfoLevel, "ignored")
	z.Log(zapcore.ErrorLevel, "kept")

	assert.Equal(t, "2026-10-18 09:30:00,123 - ERROR - kept\n", read(t, file.Path()))
}

func TestConsoleMirror(t *testing.T) {
	file := openFile(t, "main.log")
	console, err := os.CreateTemp(t.TempDir(), "console")
	require.NoError(t, err)
	defer console.Close()

	z, err := New(Options{
		File:         file,
		Level:        zapcore.DebugLevel,
		Console:      console,
		ConsoleLevel: zapcore.InfoLevel,
		Clock:        fixedClock{at},
	})
	require.NoError(t, err)

	z.Log(zapcore.DebugLevel, "file only")
	z.Log(zapcore.WarnLevel, "both")
	require.NoError(t, z.Sync())

	assert.Equal(t,
		"2026-10-18 09:30:00,123 - DEBUG - file only\n"+
			"2026-10-18 09:30:00,123 - WARN - both\n",
		read(t, file.Path()),
	)
	assert.Equal(t, "2026-10-18 09:30:00,123 - WARN - both\n", read(t, console.Name()))
}

func TestNamedLibraryLoggerSharesDestinations(t *testing.T) {
	file := openFile(t, "main.log")
	z, err := New(Options{File: file, Level: zapcore.InfoLevel, Clock: fixedClock{at}})
	require.NoError(t, err)

	z.Named("httpclient").Info("retrying request")
	z.Named("httpclient").Debug("below threshold")

	assert.Equal(t, "2026-10-18 09:30:00,123 - INFO - retrying request\n", read(t, file.Path()))
}

func TestWriteFailuresGoToErrorOutput(t *testing.T) {
	file := &fullDisk{}
	var reports bytes.Buffer

	z, err := New(Options{
		File:        file,
		Level:       zapcore.ErrorLevel,
		Clock:       fixedClock{at},
		ErrorOutput: zapcore.AddSync(&reports),
	})
	require.NoError(t, err)

	z.Log(zapcore.ErrorLevel, "boom")

	assert.EqualValues(t, 1, file.writes.Load())
	assert.Equal(t, 1, strings.Count(reports.String(), "write error: no space left on device"))
}

func TestWriteFailuresDefaultToConsole(t *testing.T) {
	console, err := os.CreateTemp(t.TempDir(), "console")
	require.NoError(t, err)
	defer console.Close()

	z, err := New(Options{
		File:         &fullDisk{},
		Level:        zapcore.ErrorLevel,
		Console:      console,
		ConsoleLevel: zapcore.FatalLevel,
		Clock:        fixedClock{at},
	})
	require.NoError(t, err)

	z.Log(zapcore.ErrorLevel, "boom")
	assert.Contains(t, read(t, console.Name()), "write error: no space left on device")
}
