package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/gzlog/config"
	"github.com/iamNilotpal/gzlog/internal/core/services/session"
)

const (
	closeTimeout    = 30 * time.Second
	childWaitDelay  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type runOptions struct {
	configPath  string
	dir         string
	metricsAddr string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command with its output captured into log streams",
		Long: `Run a command whose standard output is logged at INFO level to stdout.log
and whose standard error is logged at ERROR level to stderr.log. When
TELEGRAM_TOKEN and TELEGRAM_CHAT are set, error lines raise an alert at most
once per cooldown. gzlog exits with the command's exit status.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "Log directory, overrides the configuration")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func loadConfig(opts runOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.dir != "" {
		cfg.Directory = opts.dir
	}
	if opts.metricsAddr != "" {
		cfg.EnableMetrics = true
	}
	cfg.Capture = true

	return cfg, nil
}

func runCommand(ctx context.Context, opts runOptions, args []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	s, err := session.New(cfg)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" && s.Gatherer() != nil {
		srv := serveMetrics(opts.metricsAddr, s.Gatherer(), s.Named("metrics"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	// The child inherits the captured descriptors, so its output reaches the
	// routers line by line through the redirection pipes.
	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr
	child.Cancel = func() error { return child.Process.Signal(os.Interrupt) }
	child.WaitDelay = childWaitDelay

	runErr := child.Run()

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	closeErr := s.Close(closeCtx)

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			code = 1
		}
		return multierr.Append(&ExitError{Code: code}, closeErr)
	}
	return multierr.Append(runErr, closeErr)
}

func serveMetrics(addr string, g prometheus.Gatherer, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}
