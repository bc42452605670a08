package fastbuf

import (
	"unsafe"

	"github.com/dzidzitop/libafc/internal/assert"
	"github.com/dzidzitop/libafc/internal/conststr"
	"github.com/dzidzitop/libafc/internal/errors"
	"github.com/dzidzitop/libafc/internal/growth"
)

// Append copies src to the end of the buffer. src may be a view of the
// buffer itself. It fails without writing anything if src does not fit in
// the reserved capacity.
func (b *Buffer[T, P]) Append(src ...T) error {
	if err := b.mutable("append"); err != nil {
		return err
	}
	if len(src) > b.Available() {
		return b.violation("append", errors.ErrInsufficientCapacity, "append exceeds reserved capacity")
	}
	// copy is a memmove, so overlapping views of the buffer are fine.
	b.size += copy(b.data[b.size:], src)
	return nil
}

// AppendOne appends a single element.
func (b *Buffer[T, P]) AppendOne(c T) error {
	if err := b.mutable("append_one"); err != nil {
		return err
	}
	if b.size >= b.Cap() {
		return b.violation("append_one", errors.ErrInsufficientCapacity, "buffer is full")
	}
	b.data[b.size] = c
	b.size++
	return nil
}

// Resize sets Len() to n without touching the elements. It is meant for
// content written out of band, e.g. through a tail.
func (b *Buffer[T, P]) Resize(n int) error {
	if err := b.mutable("resize"); err != nil {
		return err
	}
	if n < 0 || n > b.Cap() {
		return b.violation("resize", errors.ErrOutOfRange, "size outside [0, capacity]")
	}
	b.size = n
	return nil
}

// Clear empties the buffer and keeps its storage. It does nothing on a
// buffer that was copied by value.
func (b *Buffer[T, P]) Clear() {
	if b.copyCheck("clear") != nil {
		return
	}
	assert.That(!b.borrowed, "fastbuf: Clear with a borrowed tail")
	b.borrowed = false
	b.size = 0
}

// View returns the written elements. The slice aliases the storage and is
// valid until the next growth, Release or Detach. A copied buffer has no
// view.
func (b *Buffer[T, P]) View() []T {
	if b.data == nil || b.copyCheck("view") != nil {
		return nil
	}
	return b.data[:b.size:b.size]
}

// emptyTerminator backs CString for buffers that never allocated. It is
// wide enough and aligned for every Char.
var emptyTerminator uint64

// CString returns the written elements followed by a zero terminator;
// the terminator is the last element of the returned slice. A buffer that
// never allocated, or was copied by value, returns a shared one-element
// slice which must not be written to.
func (b *Buffer[T, P]) CString() []T {
	if b.data == nil || b.copyCheck("cstring") != nil {
		return unsafe.Slice((*T)(unsafe.Pointer(&emptyTerminator)), 1)
	}
	assert.That(!b.borrowed, "fastbuf: CString with a borrowed tail")
	assert.That(b.size <= b.Cap(), "fastbuf: size above capacity")
	b.data[b.size] = 0
	return b.data[: b.size+1 : b.size+1]
}

// AppendString copies s into a byte buffer under the same rules as Append.
func AppendString[P growth.Policy](b *Buffer[byte, P], s string) error {
	if err := b.mutable("append_string"); err != nil {
		return err
	}
	if len(s) > b.Available() {
		return b.violation("append_string", errors.ErrInsufficientCapacity, "append exceeds reserved capacity")
	}
	b.size += copy(b.data[b.size:], s)
	return nil
}

// AppendLiteral appends a wrapped literal to a byte buffer.
func AppendLiteral[P growth.Policy](b *Buffer[byte, P], lit conststr.Ref) error {
	return AppendString(b, lit.Value())
}

// String returns a copy of a byte buffer's content.
func String[P growth.Policy](b *Buffer[byte, P]) string {
	return string(b.View())
}
