// Package compression provides the archive codecs used for rotated segments.
// Both codecs come from github.com/klauspost/compress: gzip is a drop-in,
// faster replacement for compress/gzip and zstd trades CPU for ratio.
package compression

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/iamNilotpal/gzlog/internal/core/ports"
)

// Returns CompressionOptions initialized with gzip at its default level, the
// format every downstream tool understands.
func DefaultOptions() *domain.CompressionOptions {
	return &domain.CompressionOptions{
		Algorithm: domain.CompressionGzip,
		Level:     GzipDefaultLevel,
	}
}

// Checks if the compression options are valid and returns an error if any option
// is outside acceptable bounds.
func Validate(input *domain.CompressionOptions) error {
	switch input.Algorithm {
	case domain.CompressionGzip:
		if input.Level < GzipDefaultLevel || input.Level > GzipBestLevel {
			return fmt.Errorf(
				"gzip compression level must be between %d and %d, got %d", GzipDefaultLevel, GzipBestLevel, input.Level,
			)
		}
	case domain.CompressionZstd:
		if input.Level != 0 && (input.Level < ZstdFastestLevel || input.Level > ZstdBestLevel) {
			return fmt.Errorf(
				"zstd compression level must be between %d and %d, got %d", ZstdFastestLevel, ZstdBestLevel, input.Level,
			)
		}
		if input.EncoderConcurrency < 0 || input.EncoderConcurrency > runtime.NumCPU() {
			return fmt.Errorf(
				"encoder concurrency must be between 0 and %d, got %d", runtime.NumCPU(), input.EncoderConcurrency,
			)
		}
	default:
		return fmt.Errorf("unsupported compression algorithm: %q", input.Algorithm)
	}
	return nil
}

// New returns the codec selected by opts. A nil opts selects DefaultOptions.
func New(opts *domain.CompressionOptions) (ports.Compressor, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Algorithm == "" {
		opts.Algorithm = domain.CompressionGzip
	}

	if err := Validate(opts); err != nil {
		return nil, err
	}

	switch opts.Algorithm {
	case domain.CompressionZstd:
		return NewZstd(opts.Level, opts.EncoderConcurrency), nil
	default:
		return NewGzip(opts.Level), nil
	}
}

// ForPath returns the codec that reads the archive at path, chosen by its
// extension. ok is false for paths that are not archives.
func ForPath(path string) (c ports.Compressor, ok bool) {
	switch filepath.Ext(path) {
	case "." + GzipExtension:
		return NewGzip(0), true
	case "." + ZstdExtension:
		return NewZstd(0, 1), true
	default:
		return nil, false
	}
}
