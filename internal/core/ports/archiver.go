package ports

import "context"

// Archiver takes ownership of a closed, rotated segment and turns it into a
// compressed archive.
type Archiver interface {
	Archive(ctx context.Context, path string) error
	Extension() string
}
