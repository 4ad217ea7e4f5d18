package ports

import (
	"io"

	"github.com/iamNilotpal/gzlog/internal/core/domain"
)

// Defines the interface for archive codecs.
// This allows us to swap compression algorithms without changing core logic.
type Compressor interface {
	// NewWriter wraps w so that everything written is compressed.
	// Closing the returned writer flushes the codec but does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)

	// NewReader wraps r so that reads return decompressed bytes.
	NewReader(r io.Reader) (io.ReadCloser, error)

	// Extension is the archive suffix without the leading dot.
	Extension() string

	// Algorithm identifies the codec.
	Algorithm() domain.CompressionAlgorithm
}
