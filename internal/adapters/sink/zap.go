// Package sink formats leveled records as "<time> - <LEVEL> - <message>"
// lines and writes them to a log file and an optional console mirror.
package sink

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iamNilotpal/gzlog/pkg/errors"
)

// DefaultTimeLayout renders timestamps like "2026-10-18 09:30:00,123".
const DefaultTimeLayout = "2006-01-02 15:04:05,000"

// File is the destination of a sink's file core.
type File interface {
	zapcore.WriteSyncer
	Path() string
}

type Options struct {
	// File receives every record at or above Level. Required.
	File File

	// Level is the minimum level written to File.
	Level zapcore.Level

	// Console, when set, mirrors records at or above ConsoleLevel. Level
	// names are coloured when it is a terminal.
	Console      *os.File
	ConsoleLevel zapcore.Level

	// TimeLayout overrides DefaultTimeLayout.
	TimeLayout string

	// Clock overrides the record timestamp source.
	Clock zapcore.Clock

	// ErrorOutput receives zap's own failure reports, such as a failed file
	// write. It must not lead back into a stream this sink writes, or a
	// failing file feeds itself. Defaults to Console, then os.Stderr.
	ErrorOutput zapcore.WriteSyncer
}

// Zap is a ports.RecordSink backed by a zap logger whose core tees the file
// and console destinations.
type Zap struct {
	file    File
	console *os.File
	logger  *zap.Logger
}

func New(opts Options) (*Zap, error) {
	if opts.File == nil {
		return nil, errors.NewValidationError("file", nil, fmt.Errorf("file destination is required"))
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = DefaultTimeLayout
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(opts.TimeLayout, false)),
			opts.File,
			opts.Level,
		),
	}

	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(opts.TimeLayout, isTerminal(opts.Console))),
			zapcore.Lock(opts.Console),
			opts.ConsoleLevel,
		))
	}

	errorOutput := opts.ErrorOutput
	if errorOutput == nil {
		errorOutput = firstOutput(opts.Console, os.Stderr)
	}

	options := []zap.Option{zap.ErrorOutput(zapcore.Lock(errorOutput))}
	if opts.Clock != nil {
		options = append(options, zap.WithClock(opts.Clock))
	}

	return &Zap{
		file:    opts.File,
		console: opts.Console,
		logger:  zap.New(zapcore.NewTee(cores...), options...),
	}, nil
}

// Log emits one record at level.
func (z *Zap) Log(level zapcore.Level, msg string) {
	if ce := z.logger.Check(level, msg); ce != nil {
		ce.Write()
	}
}

// Sync flushes the file destination. Console sync errors are ignored since
// terminals and pipes reject fsync.
func (z *Zap) Sync() error {
	if z.console != nil {
		_ = z.console.Sync()
	}
	return z.file.Sync()
}

// FilePath returns the path of the file destination.
func (z *Zap) FilePath() string {
	return z.file.Path()
}

// Logger returns the underlying logger for callers that log directly.
func (z *Zap) Logger() *zap.Logger {
	return z.logger
}

// Named returns a child logger for a library; its records share this sink's
// destinations and levels.
func (z *Zap) Named(name string) *zap.Logger {
	return z.logger.Named(name)
}

func encoderConfig(layout string, color bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout(layout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

func firstOutput(console, fallback *os.File) zapcore.WriteSyncer {
	if console != nil {
		return console
	}
	return fallback
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
