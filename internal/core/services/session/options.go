package session

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iamNilotpal/gzlog/internal/core/ports"
)

type Option func(*options)

type options struct {
	stdout     *os.File
	stderr     *os.File
	console    *os.File
	registerer prometheus.Registerer
	logger     *zap.SugaredLogger
	notifier   ports.Notifier
}

func defaultOptions() *options {
	return &options{stdout: os.Stdout, stderr: os.Stderr}
}

// WithTargets replaces the process streams captured when capture is enabled.
func WithTargets(stdout, stderr *os.File) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithConsole sets the console mirror destination of the main stream.
func WithConsole(console *os.File) Option {
	return func(o *options) { o.console = console }
}

// WithRegisterer registers metrics with reg instead of a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithDiagnostics replaces the logger used for the session's own failures.
func WithDiagnostics(logger *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithNotifier replaces the environment configured Telegram notifier.
func WithNotifier(n ports.Notifier) Option {
	return func(o *options) { o.notifier = n }
}
