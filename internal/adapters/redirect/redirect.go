// Package redirect swaps a process stream's file descriptor for a pipe and
// forwards everything written to it, line by line, to an io.Writer.
//
// Redirection is process-wide state: every writer of the descriptor,
// including C code and child processes that inherit it, is captured until
// Uninstall restores the original.
package redirect

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by Install on platforms without dup2.
var ErrUnsupported = fmt.Errorf("stream redirection : %w", errors.ErrUnsupported)

// readBufferSize bounds one forwarded chunk; longer lines arrive split.
const readBufferSize = 64 * 1024
