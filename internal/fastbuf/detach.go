package fastbuf

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dzidzitop/libafc/internal/metrics"
)

// Detached is a storage block taken out of a Buffer. Its owner must call
// Release, which hands the block back to the allocator it came from.
type Detached[T Char] struct {
	alloc memory.Allocator
	raw   []byte
	data  []T // len is the content size, cap the storage size
}

// Detach gives up the storage and leaves the buffer empty. Releasing the
// buffer afterwards does not touch the detached block.
func (b *Buffer[T, P]) Detach() (*Detached[T], error) {
	if err := b.mutable("detach"); err != nil {
		return nil, err
	}
	d := &Detached[T]{alloc: b.allocator()}
	if b.raw != nil {
		d.raw = b.raw
		d.data = b.data[:b.size]
		metrics.BufferDetachTotal.Inc()
	}
	b.raw, b.data, b.size = nil, nil, 0
	return d, nil
}

// Elements returns the content. It is nil once released.
func (d *Detached[T]) Elements() []T { return d.data[:len(d.data):len(d.data)] }

// Len returns the number of content elements.
func (d *Detached[T]) Len() int { return len(d.data) }

// CString returns the content followed by a zero terminator, written into
// the slot the buffer reserved for it. It returns nil for an empty block.
func (d *Detached[T]) CString() []T {
	if d.raw == nil {
		return nil
	}
	n := len(d.data)
	s := d.data[: n+1 : n+1]
	s[n] = 0
	return s
}

// Raw returns the block exactly as the allocator handed it out.
func (d *Detached[T]) Raw() []byte { return d.raw }

// Release frees the block. Later calls do nothing.
func (d *Detached[T]) Release() {
	if d.raw == nil {
		return
	}
	d.alloc.Free(d.raw)
	d.raw, d.data = nil, nil
}
