package fastbuf

import (
	"unsafe"

	"github.com/dzidzitop/libafc/internal/errors"
)

// BorrowTail hands out the unused part of the storage, from Len() up to
// Cap(), for a producer to write into directly. The terminator slot is not
// part of the tail.
//
// Exactly one tail can be outstanding. Until it is handed back with
// ReturnTail every other mutating call fails.
func (b *Buffer[T, P]) BorrowTail() ([]T, error) {
	if err := b.mutable("borrow_tail"); err != nil {
		return nil, err
	}
	b.borrowed = true
	if b.data == nil {
		return nil, nil
	}
	c := b.Cap()
	return b.data[b.size:c:c], nil
}

// ReturnTail ends a borrow. end is the written prefix of the borrowed
// tail: a reslice such as tail[:k], or the result of an append-style
// producer given tail[:0] (strconv.AppendInt and friends). Len() grows by
// len(end). An empty end returns the tail unused.
//
// If end does not start at the borrowed tail, e.g. because the producer
// ran out of room and reallocated, the call fails and the tail stays
// borrowed.
func (b *Buffer[T, P]) ReturnTail(end []T) error {
	if err := b.copyCheck("return_tail"); err != nil {
		return err
	}
	if !b.borrowed {
		return b.violation("return_tail", errors.ErrNoTailBorrowed, "no tail to return")
	}
	if n := len(end); n > 0 {
		if b.data == nil || unsafe.SliceData(end) != &b.data[b.size] {
			return b.violation("return_tail", errors.ErrForeignTail, "slice does not start at the borrowed tail")
		}
		if n > b.Available() {
			return b.violation("return_tail", errors.ErrOutOfRange, "tail end beyond capacity")
		}
		b.size += n
	}
	b.borrowed = false
	return nil
}

// Produce reserves room for n more elements, passes exactly those n
// elements to fn and commits the count fn returns. It is the scoped form of
// BorrowTail/ReturnTail.
func (b *Buffer[T, P]) Produce(n int, fn func(dst []T) int) error {
	if err := b.Grow(n); err != nil {
		return err
	}
	tail, err := b.BorrowTail()
	if err != nil {
		return err
	}
	defer func() { b.borrowed = false }()

	written := fn(tail[:n:n])
	if written < 0 || written > n {
		return b.violation("produce", errors.ErrOutOfRange, "producer reported more than it was given")
	}
	return b.ReturnTail(tail[:written])
}
