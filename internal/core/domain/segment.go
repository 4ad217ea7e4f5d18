package domain

import "time"

// SegmentInfo describes the active log segment of a lineage at one instant.
type SegmentInfo struct {
	// Absolute path of the active file. This never changes across rotations.
	Path string

	// Bytes currently held by the active file.
	Size int64

	// When the active file was opened (or, for a pre-existing file, its
	// modification time at open).
	CreatedAt time.Time

	// Number of successful rotations performed by this lineage in-process.
	Rotations uint64

	// Time of the last successful rotation, zero if none.
	LastRotation time.Time
}
