//go:build unix

package redirect

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(p))
	return len(p), nil
}

func (c *lineCollector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestInstallForwardsLinesAndUninstallRestores(t *testing.T) {
	target, err := os.CreateTemp(t.TempDir(), "stream")
	require.NoError(t, err)
	defer target.Close()

	collector := &lineCollector{}
	r, err := Install(target, collector)
	require.NoError(t, err)

	_, err = target.WriteString("first line\nsecond line\npartial")
	require.NoError(t, err)

	_, err = r.Original().WriteString("console mirror\n")
	require.NoError(t, err)

	require.NoError(t, r.Uninstall())
	assert.Equal(t, []string{"first line\n", "second line\n", "partial"}, collector.Lines())

	_, err = target.WriteString("after uninstall\n")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	data, err := os.ReadFile(target.Name())
	require.NoError(t, err)
	assert.Equal(t, "console mirror\nafter uninstall\n", string(data))
	assert.Len(t, collector.Lines(), 3)
}

func TestUninstallIsIdempotent(t *testing.T) {
	target, err := os.CreateTemp(t.TempDir(), "stream")
	require.NoError(t, err)
	defer target.Close()

	r, err := Install(target, &lineCollector{})
	require.NoError(t, err)

	require.NoError(t, r.Uninstall())
	require.NoError(t, r.Uninstall())
	require.NoError(t, r.Close())
}

func TestLongLinesArriveInChunks(t *testing.T) {
	target, err := os.CreateTemp(t.TempDir(), "stream")
	require.NoError(t, err)
	defer target.Close()

	collector := &lineCollector{}
	r, err := Install(target, collector)
	require.NoError(t, err)

	long := strings.Repeat("x", readBufferSize+10) + "\n"
	_, err = target.WriteString(long)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	lines := collector.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, long, strings.Join(lines, ""))
}
