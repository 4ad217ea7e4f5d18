// Package domain defines the core types and options shared by the rotation,
// archival, routing and notification services.
package domain

// RotationKind selects what fires a rotation.
type RotationKind string

const (
	// RotateByTime rotates on a fixed wall-clock interval.
	RotateByTime RotationKind = "time"

	// RotateBySize rotates once the active segment reaches MaxBytes.
	RotateBySize RotationKind = "size"
)

// Interval units accepted in RotationPolicy.When. WeekdayPrefix is followed by
// a digit 0-6 where 0 is Monday.
const (
	WhenSecond    = "S"
	WhenMinute    = "M"
	WhenHour      = "H"
	WhenDay       = "D"
	WhenMidnight  = "MIDNIGHT"
	WeekdayPrefix = "W"
)

// RotationPolicy defines when a segment lineage rotates and how many archives
// of that lineage are retained. A policy belongs to exactly one active file.
type RotationPolicy struct {
	// Kind selects time based or size based rotation.
	Kind RotationKind `yaml:"kind"`

	// When is the interval unit for time based rotation: S, M, H, D,
	// midnight, or W0-W6 (weekday, 0 is Monday). Case-insensitive.
	//
	// Default: D
	When string `yaml:"when"`

	// Interval is the number of When units between rotations. Ignored for
	// midnight and weekday rotation.
	//
	// Default: 1
	Interval int `yaml:"interval"`

	// MaxBytes is the size threshold for size based rotation.
	MaxBytes int64 `yaml:"max_bytes"`

	// BackupCount is the maximum number of archives kept. Older archives are
	// pruned after every successful archival. Zero keeps everything.
	//
	// Default: 12
	BackupCount int `yaml:"backup_count"`

	// UTC computes time boundaries and suffixes in UTC instead of local time.
	UTC bool `yaml:"utc"`
}
