package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory classifies the recoverable failures that can happen on the
// rotation, archival and notification paths. None of them are ever returned
// to the code that performed the original write; they are reported through
// an error handler and logged.
type ErrorCategory int

const (
	// ErrorRotation indicates that renaming or reopening the active segment
	// failed (destination collision, permission denied). The rotation cycle
	// is skipped and the still-active file keeps receiving writes.
	ErrorRotation ErrorCategory = iota + 1

	// ErrorCompression indicates that writing the compressed copy of a rotated
	// segment failed. The uncompressed segment is kept on disk.
	ErrorCompression

	// ErrorCleanup indicates that removing the plain segment failed after the
	// compressed copy was written. Both artifacts remain on disk.
	ErrorCleanup

	// ErrorRetention indicates that pruning of old archives failed.
	ErrorRetention

	// ErrorNotification indicates that an external alert could not be delivered.
	ErrorNotification

	// ErrorStorage indicates plain I/O failures on the active segment such as
	// write or sync errors.
	ErrorStorage
)

// String returns the string representation of the error category.
// This is useful for logging, metrics, and error reporting.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorRotation:
		return "rotation"
	case ErrorCompression:
		return "compression"
	case ErrorCleanup:
		return "cleanup"
	case ErrorRetention:
		return "retention"
	case ErrorNotification:
		return "notification"
	case ErrorStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// LogError describes a failure on the logging side channel.
type LogError struct {
	Err       error
	Path      string
	Operation string
	Timestamp time.Time
	Category  ErrorCategory
}

// NewLogError creates a LogError stamped with the current time.
func NewLogError(category ErrorCategory, operation, path string, err error) *LogError {
	return &LogError{
		Err:       err,
		Path:      path,
		Category:  category,
		Operation: operation,
		Timestamp: time.Now(),
	}
}

func (e *LogError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%v] %s: %v", e.Category, e.Operation, e.Err)
	}
	return fmt.Sprintf("[%v] %s %s: %v", e.Category, e.Operation, e.Path, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}

// IsRetryAble returns whether the failed operation is attempted again on its
// own. Rotation is re-evaluated on the next write and compression may be
// re-triggered, everything else is reported once.
func (e *LogError) IsRetryAble() bool {
	switch e.Category {
	case ErrorRotation, ErrorCompression, ErrorStorage:
		return true
	default:
		return false
	}
}

// IsCategory reports whether err wraps a LogError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var le *LogError
	if errors.As(err, &le) {
		return le.Category == category
	}
	return false
}
