package util

import (
	"sync"
)

// BufferPool provides reusable fixed-size byte buffers so payload batches
// do not allocate per call. Buffers are zeroed before going back to the
// pool because they held plaintext.
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a new buffer pool with the specified buffer size.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

// Size returns the length of the buffers handed out by p.
func (p *BufferPool) Size() int {
	return p.size
}

// Get retrieves a buffer from the pool.
// The buffer contents are zero or undefined and should be overwritten.
func (p *BufferPool) Get() []byte {
	return *p.pool.Get().(*[]byte)
}

// Put zeroes b and returns it to the pool.
// The buffer should not be used after calling Put.
func (p *BufferPool) Put(b []byte) {
	if len(b) != p.size {
		// Don't return mismatched buffers to avoid corruption
		return
	}
	clear(b)
	p.pool.Put(&b)
}

// MiBPool provides the 1 MiB batch buffers of the payload codec
// (256 segments of 4 KiB).
var MiBPool = NewBufferPool(MiB)

// GetMiBBuffer gets a 1 MiB buffer from the default pool.
func GetMiBBuffer() []byte {
	return MiBPool.Get()
}

// PutMiBBuffer returns a 1 MiB buffer to the default pool.
func PutMiBBuffer(b []byte) {
	MiBPool.Put(b)
}
