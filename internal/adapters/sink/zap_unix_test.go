//go:build unix

package sink

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/iamNilotpal/gzlog/internal/adapters/redirect"
	"github.com/iamNilotpal/gzlog/internal/core/services/router"
)

// followStream writes to whichever file is current, the way the session
// diagnostics follow the original stderr once it is captured.
type followStream struct {
	out atomic.Pointer[os.File]
}

func (f *followStream) Write(p []byte) (int, error) {
	return f.out.Load().Write(p)
}

func TestCapturedStderrWriteFailureStaysBounded(t *testing.T) {
	stderr, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer stderr.Close()

	errorOutput := &followStream{}
	errorOutput.out.Store(stderr)

	file := &fullDisk{}
	z, err := New(Options{
		File:        file,
		Level:       zapcore.ErrorLevel,
		Clock:       fixedClock{at},
		ErrorOutput: zapcore.AddSync(errorOutput),
	})
	require.NoError(t, err)

	r, err := redirect.Install(stderr, router.New(z, zapcore.ErrorLevel, nil))
	require.NoError(t, err)
	defer r.Close()
	errorOutput.out.Store(r.Original())

	fmt.Fprintln(stderr, "boom")
	require.NoError(t, r.Uninstall())

	assert.EqualValues(t, 1, file.writes.Load())
	assert.Equal(t, 1, strings.Count(read(t, stderr.Name()), "write error"))
}
