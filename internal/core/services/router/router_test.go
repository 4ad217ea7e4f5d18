package router

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type record struct {
	level zapcore.Level
	msg   string
}

type memorySink struct {
	mu      sync.Mutex
	records []record
	syncs   int
	syncErr error
}

func (s *memorySink) Log(level zapcore.Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record{level: level, msg: msg})
}

func (s *memorySink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs++
	return s.syncErr
}

func (s *memorySink) FilePath() string { return "/var/log/app/main.log" }

type countingNotifier struct {
	enabled  bool
	messages []string
}

func (n *countingNotifier) Notify(msg string) { n.messages = append(n.messages, msg) }
func (n *countingNotifier) Enabled() bool     { return n.enabled }

func TestBlankWritesProduceNoRecords(t *testing.T) {
	sink := &memorySink{}
	notifier := &countingNotifier{enabled: true}
	r := New(sink, zapcore.ErrorLevel, notifier)

	for _, blank := range []string{"", "\n", "   ", "\t\r\n"} {
		n, err := r.WriteString(blank)
		require.NoError(t, err)
		assert.Zero(t, n, "input %q", blank)
	}

	assert.Empty(t, sink.records)
	assert.Empty(t, notifier.messages)
}

func TestWriteStringEmitsTrimmedRecord(t *testing.T) {
	sink := &memorySink{}
	r := New(sink, zapcore.InfoLevel, nil)

	n, err := r.WriteString("  server started on :8080 \n")
	require.NoError(t, err)
	assert.Equal(t, len("  server started on :8080"), n)

	require.Len(t, sink.records, 1)
	assert.Equal(t, record{level: zapcore.InfoLevel, msg: "  server started on :8080"}, sink.records[0])
}

func TestWriteReportsWholeBuffer(t *testing.T) {
	sink := &memorySink{}
	r := New(sink, zapcore.InfoLevel, nil)

	n, err := fmt.Fprintln(r, "hello")
	require.NoError(t, err)
	assert.Equal(t, len("hello\n"), n)

	n, err = r.Write([]byte("\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, sink.records, 1)
	assert.Equal(t, "hello", sink.records[0].msg)
}

func TestNotificationOnlyAtErrorLevel(t *testing.T) {
	t.Run("error router notifies", func(t *testing.T) {
		notifier := &countingNotifier{enabled: true}
		r := New(&memorySink{}, zapcore.ErrorLevel, notifier)

		r.WriteString("connection refused\n")
		assert.Equal(t, []string{"connection refused"}, notifier.messages)
	})

	t.Run("info router does not", func(t *testing.T) {
		notifier := &countingNotifier{enabled: true}
		r := New(&memorySink{}, zapcore.InfoLevel, notifier)

		r.WriteString("all good")
		assert.Empty(t, notifier.messages)
	})

	t.Run("disabled notifier is skipped", func(t *testing.T) {
		notifier := &countingNotifier{}
		sink := &memorySink{}
		r := New(sink, zapcore.ErrorLevel, notifier)

		n, err := r.WriteString("boom")
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Len(t, sink.records, 1)
		assert.Empty(t, notifier.messages)
	})
}

func TestFlush(t *testing.T) {
	sink := &memorySink{}
	r := New(sink, zapcore.InfoLevel, nil)

	require.NoError(t, r.Flush())
	require.NoError(t, r.Flush())
	assert.Equal(t, 2, sink.syncs)

	sink.syncErr = errors.New("sync failed")
	assert.EqualError(t, r.Flush(), "sync failed")
}
