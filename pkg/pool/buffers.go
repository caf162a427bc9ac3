// Package pool provides the allocation-reuse helpers the render path
// leans on: a bytes.Buffer pool for change-map encoding, and a bounded
// ring buffer the session manager uses to retain a rolling window of
// recent render samples without growing unbounded over a long session.
package pool

import (
	"bytes"
	"sync"
)

// BufferPool is a pool of bytes.Buffer for reducing allocations during
// change-map encoding.
var BufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a buffer from the pool, resetting it for use.
func GetBuffer() *bytes.Buffer {
	buf := BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool. Buffers larger than 64KB are
// discarded to avoid holding onto an outsized allocation indefinitely.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if buf.Cap() > 64*1024 {
		return
	}
	BufferPool.Put(buf)
}

// RingBuffer is a fixed-size circular buffer. Once full, pushing a new
// item overwrites the oldest.
type RingBuffer[T any] struct {
	data  []T
	head  int
	tail  int
	count int
	cap   int
	mu    sync.Mutex
}

// NewRingBuffer creates a new ring buffer with the given capacity.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	return &RingBuffer[T]{
		data: make([]T, capacity),
		cap:  capacity,
	}
}

// Push adds an item to the buffer. If full, it overwrites the oldest
// item and reports that an overwrite happened.
func (rb *RingBuffer[T]) Push(item T) (overwritten bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == rb.cap {
		rb.data[rb.tail] = item
		rb.tail = (rb.tail + 1) % rb.cap
		rb.head = (rb.head + 1) % rb.cap
		return true
	}

	rb.data[rb.tail] = item
	rb.tail = (rb.tail + 1) % rb.cap
	rb.count++
	return false
}

// Snapshot returns the buffered items oldest-first without clearing the
// buffer.
func (rb *RingBuffer[T]) Snapshot() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]T, rb.count)
	for i := 0; i < rb.count; i++ {
		out[i] = rb.data[(rb.head+i)%rb.cap]
	}
	return out
}

// Len returns the number of items currently buffered.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}
