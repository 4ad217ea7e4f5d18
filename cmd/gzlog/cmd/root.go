// Package cmd provides the gzlog command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	logerrors "github.com/iamNilotpal/gzlog/pkg/errors"
	"github.com/iamNilotpal/gzlog/pkg/logger"
)

var version = "dev"

// ExitError carries the exit status of a command run under gzlog.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCmd creates the root command for the gzlog CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gzlog",
		Short: "Capture process output into rotating, compressed log files",
		Long: `gzlog runs a command with its standard output and standard error captured
into leveled log streams. Streams rotate on a time or size boundary and
rotated segments are compressed into archives.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("gzlog version {{.Version}}\n")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCatCmd())

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	log := logger.New("gzlog")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if ve := logerrors.AsValidationError(err); ve != nil {
		log.Errorw("invalid configuration", "field", ve.Field, "value", ve.Value, "error", ve.Err)
	} else {
		log.Errorw("command failed", "error", err)
	}
	return 1
}
