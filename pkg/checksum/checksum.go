package checksum

import (
	"hash"
	"hash/crc32"
	"io"
)

var table = crc32.MakeTable(crc32.IEEE)

// New returns a streaming CRC-32 (IEEE) hash.
func New() hash.Hash32 {
	return crc32.New(table)
}

// Reader computes the CRC-32 of everything read from r.
func Reader(r io.Reader) (uint32, int64, error) {
	h := New()
	n, err := io.Copy(h, r)
	if err != nil {
		return 0, n, err
	}
	return h.Sum32(), n, nil
}
