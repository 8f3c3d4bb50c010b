// Package pool provides reusable copy buffers for hashing and reading local files.
package pool

import (
	"io"
	"sync"
)

// BufferSize is the size of the buffers handed out by Default.
const BufferSize = 64 * 1024

// Default is the pool shared by the scanner.
var Default = NewBufferPool(BufferSize)

// BufferPool hands out fixed-size byte buffers.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool creates a pool of buffers of the given size.
func NewBufferPool(size int) *BufferPool {
	bp := &BufferPool{size: size}
	bp.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// Get returns a buffer of full length. Return it with Put.
func (bp *BufferPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

// Put returns buf to the pool. Buffers of the wrong size are dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil || cap(*buf) != bp.size {
		return
	}
	*buf = (*buf)[:bp.size]
	bp.pool.Put(buf)
}

// Copy is io.CopyBuffer with a pooled buffer.
func (bp *BufferPool) Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := bp.Get()
	defer bp.Put(buf)
	return io.CopyBuffer(dst, src, *buf)
}
