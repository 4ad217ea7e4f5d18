// Package session assembles rotating files, record sinks, routers, the
// notifier and stream redirection from a Config, and tears them down again.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iamNilotpal/gzlog/config"
	"github.com/iamNilotpal/gzlog/internal/adapters/compression"
	"github.com/iamNilotpal/gzlog/internal/adapters/metrics"
	"github.com/iamNilotpal/gzlog/internal/adapters/redirect"
	"github.com/iamNilotpal/gzlog/internal/adapters/sink"
	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/iamNilotpal/gzlog/internal/core/ports"
	"github.com/iamNilotpal/gzlog/internal/core/services/archive"
	"github.com/iamNilotpal/gzlog/internal/core/services/notify"
	"github.com/iamNilotpal/gzlog/internal/core/services/rotation"
	"github.com/iamNilotpal/gzlog/internal/core/services/router"
	"github.com/iamNilotpal/gzlog/pkg/logger"
	"github.com/iamNilotpal/gzlog/pkg/system"
)

const diagnosticsName = "gzlog"

// Session is a configured set of log streams. Create it once at process
// start and Close it before exit so redirected descriptors are restored and
// pending archives finish.
type Session struct {
	cfg      *config.Config
	dir      string
	names    []string
	log      *zap.SugaredLogger
	diag     *diagnostics
	diagOut  zapcore.WriteSyncer
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	files     map[string]*rotation.File
	sinks     map[string]*sink.Zap
	routers   map[string]*router.Router
	redirects []*redirect.Redirection
	notifier  ports.Notifier

	libMu     sync.Mutex
	libraries map[string]*zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// New validates cfg and builds the session. Validation, including the rule
// that at least one stream is redirected, completes before any file is
// created or any descriptor is redirected.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		files:     make(map[string]*rotation.File),
		sinks:     make(map[string]*sink.Zap),
		routers:   make(map[string]*router.Router),
		libraries: make(map[string]*zap.Logger),
	}
	s.diag = newDiagnostics(o.stderr)
	s.diagOut = zapcore.Lock(zapcore.AddSync(s.diag))
	s.log = o.logger
	if s.log == nil {
		s.log = logger.NewWithSink(diagnosticsName, s.diagOut)
	}

	dir, err := filepath.Abs(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("error resolving log directory : %w", err)
	}
	s.dir = dir

	for name, stream := range cfg.Streams {
		if stream.Redirect {
			s.names = append(s.names, name)
		}
	}
	sort.Strings(s.names)

	triggers := make(map[string]rotation.Trigger)
	for _, name := range s.names {
		if !cfg.Streams[name].Rotate {
			continue
		}
		policy := cfg.Rotation
		trigger, err := rotation.NewTrigger(&policy)
		if err != nil {
			return nil, err
		}
		triggers[name] = trigger
	}

	codec := cfg.Compression
	compressor, err := compression.New(&codec)
	if err != nil {
		return nil, err
	}

	if err := s.setupMetrics(o.registerer); err != nil {
		return nil, err
	}

	s.notifier = o.notifier
	if s.notifier == nil {
		telegram, err := notify.NewFromEnv(
			domain.NotifierOptions{
				Cooldown: cfg.Notifier.Cooldown,
				Timeout:  cfg.Notifier.Timeout,
				Async:    cfg.Notifier.Async,
				LogPath:  s.path(config.StreamStderr),
			},
			notify.WithLogger(s.log),
			notify.WithMetrics(s.metrics),
		)
		if err != nil {
			return nil, err
		}
		s.notifier = telegram
	}

	archiver, err := archive.New(archive.Options{
		Compressor: compressor,
		Verify:     codec.Verify,
		Metrics:    s.metrics,
		Logger:     s.log,
	})
	if err != nil {
		return nil, err
	}

	if err := s.openFiles(triggers, archiver); err != nil {
		return nil, err
	}

	// The main sink is built last: its console mirror needs the original
	// stdout, which only exists once stdout is captured.
	if err := s.buildSinks(o, false); err != nil {
		return nil, multierr.Append(err, s.close())
	}

	s.buildRouters()

	if err := s.capture(o); err != nil {
		return nil, multierr.Append(err, s.close())
	}

	if err := s.buildSinks(o, true); err != nil {
		return nil, multierr.Append(err, s.close())
	}

	for _, lib := range cfg.Libraries {
		s.Named(lib)
	}

	return s, nil
}

func (s *Session) setupMetrics(reg prometheus.Registerer) error {
	if !s.cfg.EnableMetrics {
		return nil
	}

	if reg == nil {
		registry := prometheus.NewRegistry()
		reg, s.gatherer = registry, registry
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		s.gatherer = g
	}

	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("error registering metrics : %w", err)
	}
	s.metrics = m
	return nil
}

func (s *Session) path(name string) string {
	return filepath.Join(s.dir, name+".log")
}

func (s *Session) openFiles(triggers map[string]rotation.Trigger, archiver *archive.Archiver) error {
	for _, name := range s.names {
		opts := rotation.Options{
			Path:         s.path(name),
			ErrorHandler: s.reportError,
			Metrics:      s.metrics,
		}

		if trigger, ok := triggers[name]; ok {
			opts.Trigger = trigger
			opts.Archiver = archiver
			opts.AsyncArchive = s.cfg.AsyncArchive
			opts.BackupCount = s.cfg.Rotation.BackupCount
			opts.RecoverPending = true
		}

		file, err := rotation.Open(opts)
		if err != nil {
			return multierr.Append(fmt.Errorf("error opening %s stream : %w", name, err), s.closeFiles())
		}
		s.files[name] = file
	}
	return nil
}

// buildRouters creates the stdout (info) and stderr (error, notifying)
// routers.
func (s *Session) buildRouters() {
	for _, name := range s.names {
		switch name {
		case config.StreamStdout:
			s.routers[name] = router.New(s.sinks[name], zapcore.InfoLevel, nil)
		case config.StreamStderr:
			s.routers[name] = router.New(s.sinks[name], zapcore.ErrorLevel, s.notifier)
		}
	}
}

// capture redirects the process stdout and stderr descriptors into their
// routers. Diagnostics follow the original stderr.
func (s *Session) capture(o *options) error {
	if !s.cfg.Capture {
		return nil
	}

	targets := []struct {
		name string
		file *os.File
	}{
		{config.StreamStdout, o.stdout},
		{config.StreamStderr, o.stderr},
	}

	for _, target := range targets {
		r, ok := s.routers[target.name]
		if !ok || target.file == nil {
			continue
		}

		redirection, err := redirect.Install(target.file, r)
		if err != nil {
			return fmt.Errorf("error capturing %s : %w", target.name, err)
		}
		s.redirects = append(s.redirects, redirection)

		switch target.name {
		case config.StreamStdout:
			o.console = firstFile(o.console, redirection.Original())
		case config.StreamStderr:
			s.diag.set(redirection.Original())
		}
	}
	return nil
}

// buildSinks creates the sink of the main stream when main is set and of
// every other stream otherwise.
func (s *Session) buildSinks(o *options, main bool) error {
	for _, name := range s.names {
		if (name == config.StreamMain) != main {
			continue
		}

		opts := sink.Options{
			File:       s.files[name],
			Level:      s.cfg.Streams[name].Level,
			TimeLayout: s.cfg.TimeLayout,
			// Write failures are reported on the original stderr; the
			// captured fd 2 would route them back into the failing file.
			ErrorOutput: s.diagOut,
		}
		if name == config.StreamMain && s.cfg.Console {
			opts.Console = firstFile(o.console, o.stdout)
			opts.ConsoleLevel = zapcore.InfoLevel
		}

		z, err := sink.New(opts)
		if err != nil {
			return fmt.Errorf("error creating %s sink : %w", name, err)
		}
		s.sinks[name] = z
	}
	return nil
}

func firstFile(files ...*os.File) *os.File {
	for _, f := range files {
		if f != nil {
			return f
		}
	}
	return nil
}

func (s *Session) reportError(err error) {
	s.log.Errorw("Log maintenance failed", "error", err)
}

// Logger returns the logger of a stream, or nil if it does not exist.
func (s *Session) Logger(name string) *zap.Logger {
	z, ok := s.sinks[name]
	if !ok {
		return nil
	}
	return z.Logger()
}

// Named returns the logger for a library. Library records go to the main
// stream; without a main stream they are dropped.
func (s *Session) Named(lib string) *zap.Logger {
	s.libMu.Lock()
	defer s.libMu.Unlock()

	if l, ok := s.libraries[lib]; ok {
		return l
	}

	main, ok := s.sinks[config.StreamMain]
	if !ok {
		return zap.NewNop()
	}
	l := main.Named(lib)
	s.libraries[lib] = l
	return l
}

// Router returns the router of the stdout or stderr stream, or nil.
func (s *Session) Router(name string) *router.Router {
	return s.routers[name]
}

// Writer returns an io.Writer for a stream: its router when it has one,
// otherwise a writer emitting each write as an info record.
func (s *Session) Writer(name string) io.Writer {
	if r, ok := s.routers[name]; ok {
		return r
	}
	if z, ok := s.sinks[name]; ok {
		return router.New(z, zapcore.InfoLevel, nil)
	}
	return nil
}

// Path returns the active file path of a stream, or "" if it does not exist.
func (s *Session) Path(name string) string {
	if f, ok := s.files[name]; ok {
		return f.Path()
	}
	return ""
}

// Streams returns the names of the session's streams in sorted order.
func (s *Session) Streams() []string {
	return append([]string(nil), s.names...)
}

// Rotate rotates one stream immediately.
func (s *Session) Rotate(name string) error {
	f, ok := s.files[name]
	if !ok {
		return fmt.Errorf("unknown stream %q", name)
	}
	return f.Rotate()
}

// Gatherer returns the registry metrics are recorded in, or nil when
// metrics are disabled or registered with a non-gathering registerer.
func (s *Session) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

// Sync flushes every stream.
func (s *Session) Sync() error {
	var err error
	for _, name := range s.names {
		if z, ok := s.sinks[name]; ok {
			err = multierr.Append(err, z.Sync())
		}
	}
	return err
}

// Close restores redirected descriptors, forwards the lines still in
// flight, waits for notifications and archives, then closes every file.
// If ctx is already done nothing is torn down and ctx.Err() is returned; if
// it ends during teardown, Close still waits for teardown to finish.
func (s *Session) Close(ctx context.Context) error {
	return system.RunWithContext(ctx, func(context.Context) error {
		s.closeOnce.Do(func() {
			s.closeErr = s.close()
		})
		return s.closeErr
	})
}

func (s *Session) close() error {
	var err error
	for _, r := range s.redirects {
		err = multierr.Append(err, r.Uninstall())
	}

	if closer, ok := s.notifier.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}

	err = multierr.Append(err, s.closeFiles())

	s.diag.reset()
	for _, r := range s.redirects {
		err = multierr.Append(err, r.Close())
	}
	return err
}

func (s *Session) closeFiles() error {
	var err error
	for _, name := range s.names {
		if f, ok := s.files[name]; ok {
			err = multierr.Append(err, f.Close())
		}
	}
	return err
}

// diagnostics is the destination of the session's own log output. It points
// at the original stderr while stderr is captured.
type diagnostics struct {
	fallback *os.File
	out      atomic.Pointer[os.File]
}

func newDiagnostics(stderr *os.File) *diagnostics {
	if stderr == nil {
		stderr = os.Stderr
	}
	d := &diagnostics{fallback: stderr}
	d.out.Store(stderr)
	return d
}

func (d *diagnostics) set(f *os.File) { d.out.Store(f) }
func (d *diagnostics) reset()         { d.out.Store(d.fallback) }

func (d *diagnostics) Write(p []byte) (int, error) {
	return d.out.Load().Write(p)
}
