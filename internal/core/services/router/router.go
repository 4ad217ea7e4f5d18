// Package router turns free-form text written to a process stream into
// leveled log records.
package router

import (
	"strings"
	"unicode"

	"go.uber.org/zap/zapcore"

	"github.com/iamNilotpal/gzlog/internal/core/ports"
)

// Router emits every non-blank write as one record at a fixed level. It is
// safe for concurrent use when its sink and notifier are.
type Router struct {
	sink     ports.RecordSink
	level    zapcore.Level
	notifier ports.Notifier
}

// New returns a router writing to sink at level. notifier may be nil; it is
// only consulted for error level routers.
func New(sink ports.RecordSink, level zapcore.Level, notifier ports.Notifier) *Router {
	return &Router{sink: sink, level: level, notifier: notifier}
}

// Level returns the level every record is emitted at.
func (r *Router) Level() zapcore.Level {
	return r.level
}

// WriteString trims trailing whitespace from s and emits the remainder. It
// returns the length of the emitted message, or 0 for blank input.
func (r *Router) WriteString(s string) (int, error) {
	msg := strings.TrimRightFunc(s, unicode.IsSpace)
	if msg == "" {
		return 0, nil
	}

	r.sink.Log(r.level, msg)
	if r.level >= zapcore.ErrorLevel && r.notifier != nil && r.notifier.Enabled() {
		r.notifier.Notify(msg)
	}
	return len(msg), nil
}

// Write routes p like WriteString and reports all of p as consumed.
func (r *Router) Write(p []byte) (int, error) {
	r.WriteString(string(p))
	return len(p), nil
}

// Flush syncs every destination of the sink.
func (r *Router) Flush() error {
	return r.sink.Sync()
}
