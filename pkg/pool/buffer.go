package pool

import (
	"bytes"
	"sync"
)

// BufferPool hands out reusable byte buffers for short-lived encodings such
// as alert payloads. Buffers that grew past twice the initial size are
// dropped instead of being returned to the pool.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool creates a pool whose buffers start with the given capacity.
func NewBufferPool(size int) *BufferPool {
	bp := &BufferPool{size: size}
	bp.pool.New = func() any {
		return bytes.NewBuffer(make([]byte, 0, size))
	}
	return bp
}

// Get returns an empty buffer.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > bp.size*2 {
		return
	}
	buf.Reset()
	bp.pool.Put(buf)
}
