package compression

import (
	"io"

	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/klauspost/compress/zstd"
)

// Compression level constants define the trade-off between compression ratio and speed.
// Higher levels provide better compression at the cost of increased CPU usage and time.
const (
	ZstdFastestLevel = int(zstd.SpeedFastest)         // Optimized for speed with minimal compression
	ZstdDefaultLevel = int(zstd.SpeedDefault)         // Balanced between speed and compression ratio
	ZstdBestLevel    = int(zstd.SpeedBestCompression) // Maximum compression ratio, higher CPU usage
)

const ZstdExtension = "zst"

// Zstd implements ports.Compressor using streaming zstd frames.
type Zstd struct {
	level       int
	concurrency int
}

// NewZstd creates a zstd codec. A zero level selects ZstdDefaultLevel and a
// zero concurrency lets the encoder pick GOMAXPROCS.
func NewZstd(level, concurrency int) *Zstd {
	if level == 0 {
		level = ZstdDefaultLevel
	}
	return &Zstd{level: level, concurrency: concurrency}
}

func (z *Zstd) NewWriter(w io.Writer) (io.WriteCloser, error) {
	opts := []zstd.EOption{zstd.WithEncoderLevel(zstd.EncoderLevel(z.level))}
	if z.concurrency > 0 {
		opts = append(opts, zstd.WithEncoderConcurrency(z.concurrency))
	}
	return zstd.NewWriter(w, opts...)
}

func (z *Zstd) NewReader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

func (z *Zstd) Extension() string {
	return ZstdExtension
}

func (z *Zstd) Algorithm() domain.CompressionAlgorithm {
	return domain.CompressionZstd
}

// Level returns the configured encoder level.
func (z *Zstd) Level() int {
	return z.level
}
