// Package logger builds the diagnostic zap logger used for the library's own
// messages (rotation failures, archive errors, notification errors).
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production sugared logger tagged with the service name.
// Output goes to stderr; callers that redirect stderr should build the
// logger with NewWithSink pointing at the saved original stream instead.
func New(service string) *zap.SugaredLogger {
	return NewWithSink(service, zapcore.Lock(os.Stderr))
}

// NewWithSink returns a sugared logger that writes JSON lines to ws.
func NewWithSink(service string, ws zapcore.WriteSyncer) *zap.SugaredLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), ws, zap.InfoLevel)
	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(ws)).
		Named(service).
		Sugar()
}
