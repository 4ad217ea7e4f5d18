package system

import (
	"context"
)

// Executes an operation with context awareness. The operation runs on its own
// goroutine with an independent context; if ctx is cancelled first, that
// context is cancelled too and the call waits for the operation to return so
// no resources are left half released.
//
// Returns:
//   - nil if the operation completes successfully.
//   - the operation's error if it fails.
//   - ctx.Err() if ctx was already done before starting.
func RunWithContext(ctx context.Context, operation func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Buffered so the goroutine can exit even if nobody reads the result.
	done := make(chan error, 1)

	go func() {
		done <- operation(opCtx)
		close(done)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return <-done
	}
}
