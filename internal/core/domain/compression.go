package domain

// CompressionAlgorithm names the codec used for archives.
type CompressionAlgorithm string

const (
	// CompressionGzip produces "<segment>.gz" archives.
	CompressionGzip CompressionAlgorithm = "gzip"

	// CompressionZstd produces "<segment>.zst" archives.
	CompressionZstd CompressionAlgorithm = "zstd"
)

// CompressionOptions configures how rotated segments are archived.
type CompressionOptions struct {
	// Algorithm selects the archive codec.
	//
	// Default: gzip
	Algorithm CompressionAlgorithm `yaml:"algorithm"`

	// Level is the codec specific compression level. For gzip it follows
	// compress/gzip (1-9, -1 default). For zstd it maps onto the encoder
	// speed presets (1 fastest, 4 best).
	Level int `yaml:"level"`

	// EncoderConcurrency limits zstd encoder goroutines. Zero lets the codec
	// decide. Ignored for gzip.
	EncoderConcurrency int `yaml:"encoder_concurrency"`

	// Verify re-reads every archive after writing it and compares a CRC-32 of
	// the decompressed bytes against the source before the source is removed.
	Verify bool `yaml:"verify"`
}
