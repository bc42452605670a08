package fastbuf

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"

	"github.com/dzidzitop/libafc/internal/assert"
	"github.com/dzidzitop/libafc/internal/errors"
	"github.com/dzidzitop/libafc/internal/growth"
	"github.com/dzidzitop/libafc/internal/metrics"
)

// Char is the set of element types a Buffer can hold: plain integer code
// units of at most four bytes. Nothing in the set needs finalisation, so
// storage can be copied and dropped wholesale.
type Char interface {
	~byte | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32
}

// noCopy makes `go vet` report Buffers copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Buffer is a growable array of T that only grows when told to.
//
// Storage holds Cap()+1 elements; the last one is reserved for the
// terminator written by CString. Appends never grow the buffer: callers
// Reserve first and every append that does not fit is rejected with a
// contract violation. P selects the growth policy.
//
// A Buffer exclusively owns its storage. It must not be copied after
// first use; ownership moves through MoveFrom, Swap, Take and Detach.
// A Buffer is not safe for concurrent use.
type Buffer[T Char, P growth.Policy] struct {
	noCopy noCopy

	addr  *Buffer[T, P] // self-pointer to detect copies by value
	alloc memory.Allocator
	log   *zerolog.Logger

	raw  []byte // block exactly as returned by alloc
	data []T    // typed view of raw, len(data) == Cap()+1 once allocated
	size int

	borrowed bool
}

// Option configures a Buffer.
type Option func(*options)

type options struct {
	alloc memory.Allocator
	log   *zerolog.Logger
}

// WithAllocator makes the buffer obtain and release storage through alloc.
func WithAllocator(alloc memory.Allocator) Option {
	return func(o *options) { o.alloc = alloc }
}

// WithLogger makes the buffer log growth at debug level and allocation
// failures at warn level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.log = &logger }
}

// New returns an empty buffer. It does not allocate.
func New[T Char, P growth.Policy](opts ...Option) *Buffer[T, P] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	b := &Buffer[T, P]{alloc: o.alloc, log: o.log}
	b.addr = b
	return b
}

// NewWithCapacity returns an empty buffer able to hold at least n elements.
func NewWithCapacity[T Char, P growth.Policy](n int, opts ...Option) (*Buffer[T, P], error) {
	b := New[T, P](opts...)
	if err := b.Reserve(n); err != nil {
		return nil, err
	}
	return b, nil
}

// Take moves src's storage into a new buffer, leaving src empty.
func Take[T Char, P growth.Policy](src *Buffer[T, P]) (*Buffer[T, P], error) {
	b := New[T, P]()
	b.log = src.log
	if err := b.MoveFrom(src); err != nil {
		return nil, err
	}
	return b, nil
}

// Len returns the number of elements written.
func (b *Buffer[T, P]) Len() int { return b.size }

// Cap returns the number of elements the buffer holds without growing,
// excluding the terminator slot.
func (b *Buffer[T, P]) Cap() int {
	if b.data == nil {
		return 0
	}
	return len(b.data) - 1
}

// MaxCap returns the structural capacity ceiling for T.
func (b *Buffer[T, P]) MaxCap() int {
	return growth.MaxCapacity(elemSize[T]())
}

// Available returns Cap()-Len().
func (b *Buffer[T, P]) Available() int { return b.Cap() - b.size }

// Borrowed reports whether a tail is outstanding.
func (b *Buffer[T, P]) Borrowed() bool { return b.borrowed }

// Policy returns the name of the buffer's growth policy.
func (b *Buffer[T, P]) Policy() string {
	var p P
	return p.Name()
}

// Allocator returns the allocator storage comes from.
func (b *Buffer[T, P]) Allocator() memory.Allocator { return b.allocator() }

// Release frees the storage and leaves the buffer empty. It is safe to
// call on an empty buffer and more than once. An outstanding tail is
// dropped.
func (b *Buffer[T, P]) Release() {
	if b.copyCheck("release") != nil {
		return
	}
	assert.That(!b.borrowed, "fastbuf: Release with a borrowed tail")
	b.borrowed = false
	if b.raw != nil {
		b.alloc.Free(b.raw)
	}
	b.raw, b.data, b.size = nil, nil, 0
}

// MoveFrom releases the receiver's storage and takes over src's storage,
// size and allocator. src is left empty.
func (b *Buffer[T, P]) MoveFrom(src *Buffer[T, P]) error {
	if b == src {
		return nil
	}
	if err := b.mutable("move"); err != nil {
		return err
	}
	if err := src.mutable("move"); err != nil {
		return err
	}

	b.Release()
	b.alloc = src.alloc
	b.raw, b.data, b.size = src.raw, src.data, src.size
	src.raw, src.data, src.size = nil, nil, 0
	return nil
}

// Swap exchanges storage, size and allocator with other.
func (b *Buffer[T, P]) Swap(other *Buffer[T, P]) error {
	if b == other {
		return nil
	}
	if err := b.mutable("swap"); err != nil {
		return err
	}
	if err := other.mutable("swap"); err != nil {
		return err
	}

	b.alloc, other.alloc = other.alloc, b.alloc
	b.raw, other.raw = other.raw, b.raw
	b.data, other.data = other.data, b.data
	b.size, other.size = other.size, b.size
	return nil
}

func (b *Buffer[T, P]) allocator() memory.Allocator {
	if b.alloc == nil {
		b.alloc = memory.DefaultAllocator
	}
	return b.alloc
}

func (b *Buffer[T, P]) copyCheck(op string) error {
	if b.addr == nil {
		b.addr = b
	} else if b.addr != b {
		return b.violation(op, errors.ErrCopiedBuffer, "buffer used after being copied by value")
	}
	return nil
}

// mutable reports whether a mutating operation may run now.
func (b *Buffer[T, P]) mutable(op string) error {
	if err := b.copyCheck(op); err != nil {
		return err
	}
	if b.borrowed {
		return b.violation(op, errors.ErrTailOutstanding, "tail must be returned first")
	}
	return nil
}

func (b *Buffer[T, P]) violation(op string, cause error, message string) error {
	metrics.BufferContractViolationsTotal.WithLabelValues(op).Inc()
	return errors.Contract(cause, op, message).
		WithContext("size", b.size).
		WithContext("capacity", b.Cap())
}

// owns reports whether p starts inside the buffer's storage.
func (b *Buffer[T, P]) owns(p []T) bool {
	if len(p) == 0 || len(b.data) == 0 {
		return false
	}
	start := uintptr(unsafe.Pointer(unsafe.SliceData(b.data)))
	end := start + uintptr(len(b.data))*uintptr(elemSize[T]())
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	return ptr >= start && ptr < end
}

func elemSize[T Char]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func elemAlign[T Char]() uintptr {
	var zero T
	return unsafe.Alignof(zero)
}
