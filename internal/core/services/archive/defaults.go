package archive

import "time"

const (
	// DefaultLockRetryDelay is how often a contended archive lock is retried.
	DefaultLockRetryDelay = time.Millisecond * 50

	// DefaultCopyBufferSize is the read buffer used while compressing.
	DefaultCopyBufferSize = 64 * 1024 // 64KB
)
