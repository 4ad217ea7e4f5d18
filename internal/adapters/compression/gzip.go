package compression

import (
	"io"

	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/klauspost/compress/gzip"
)

// Gzip level bounds, as accepted by gzip.NewWriterLevel.
const (
	GzipDefaultLevel = gzip.DefaultCompression
	GzipFastestLevel = gzip.BestSpeed
	GzipBestLevel    = gzip.BestCompression

	GzipExtension = "gz"
)

// Gzip produces RFC 1952 streams readable by gunzip and zcat.
type Gzip struct {
	level int
}

// NewGzip creates a gzip codec. Level 0 is treated as the default level
// rather than "no compression".
func NewGzip(level int) *Gzip {
	if level == 0 {
		level = GzipDefaultLevel
	}
	return &Gzip{level: level}
}

func (g *Gzip) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, g.level)
}

func (g *Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (g *Gzip) Extension() string {
	return GzipExtension
}

func (g *Gzip) Algorithm() domain.CompressionAlgorithm {
	return domain.CompressionGzip
}

// Level returns the configured compression level.
func (g *Gzip) Level() int {
	return g.level
}
