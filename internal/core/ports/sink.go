package ports

import "go.uber.org/zap/zapcore"

// RecordSink accepts leveled records, formats them and writes the bytes to the
// active segment and any mirror destinations.
type RecordSink interface {
	// Log emits one record.
	Log(level zapcore.Level, msg string)

	// Sync flushes every destination of the sink.
	Sync() error

	// FilePath returns the active segment path of the sink's file
	// destination, or an empty string when the sink has none.
	FilePath() string
}
