package fastbuf

import (
	stderrors "errors"
	"unsafe"

	"github.com/dzidzitop/libafc/internal/errors"
	"github.com/dzidzitop/libafc/internal/growth"
	"github.com/dzidzitop/libafc/internal/memory"
	"github.com/dzidzitop/libafc/internal/metrics"
)

// Reserve makes sure the buffer holds at least n elements without growing
// again. It never shrinks. On failure the buffer is left exactly as it was.
func (b *Buffer[T, P]) Reserve(n int) error {
	if err := b.mutable("reserve"); err != nil {
		return err
	}
	if n <= b.Cap() {
		if n < 0 {
			return b.violation("reserve", errors.ErrOutOfRange, "negative capacity")
		}
		return nil
	}
	return b.grow("reserve", n)
}

// ReserveForOne grows the buffer by one growth step if it is full.
func (b *Buffer[T, P]) ReserveForOne() error {
	if err := b.mutable("reserve_for_one"); err != nil {
		return err
	}
	if b.size < b.Cap() {
		return nil
	}
	if b.Cap() == b.MaxCap() {
		return b.allocationFailure("reserve_for_one", errors.ErrCapacityExceeded, b.Cap()+1)
	}
	return b.grow("reserve_for_one", b.Cap()+1)
}

// Grow makes room for n more elements past Len().
func (b *Buffer[T, P]) Grow(n int) error {
	if err := b.mutable("grow"); err != nil {
		return err
	}
	if n < 0 {
		return b.violation("grow", errors.ErrOutOfRange, "negative growth")
	}
	if n <= b.Available() {
		return nil
	}
	if n > b.MaxCap()-b.size {
		return b.allocationFailure("grow", errors.ErrCapacityExceeded, n)
	}
	return b.grow("grow", b.size+n)
}

// grow moves the content into a new block sized by the policy for a
// capacity of n. The old block is freed only once the new one is filled.
func (b *Buffer[T, P]) grow(op string, n int) error {
	var policy P
	capacity, err := growth.NextCapacity(b.Cap(), n, b.MaxCap(), policy)
	if err != nil {
		if stderrors.Is(err, errors.ErrContractViolation) {
			return b.violation(op, errors.ErrOutOfRange, "negative capacity")
		}
		return b.allocationFailure(op, errors.ErrCapacityExceeded, n)
	}
	if capacity <= b.Cap() {
		return nil
	}

	storage := capacity + 1
	alloc := b.allocator()
	raw, err := memory.Allocate(alloc, storage*elemSize[T]())
	if err != nil {
		return b.allocationFailure(op, err, n)
	}
	if uintptr(unsafe.Pointer(unsafe.SliceData(raw)))%elemAlign[T]() != 0 {
		alloc.Free(raw)
		return b.allocationFailure(op, errors.ErrMisalignedBlock, n)
	}

	data := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), storage)
	copy(data, b.data[:b.size])

	old, oldCap := b.raw, b.Cap()
	b.raw, b.data = raw, data
	if old != nil {
		alloc.Free(old)
	}

	metrics.BufferGrowTotal.WithLabelValues(policy.Name()).Inc()
	metrics.BufferGrowElements.WithLabelValues(policy.Name()).Observe(float64(storage))
	if b.log != nil {
		b.log.Debug().
			Str("op", op).
			Str("policy", policy.Name()).
			Int("from", oldCap).
			Int("to", capacity).
			Int("size", b.size).
			Msg("buffer grown")
	}
	return nil
}

func (b *Buffer[T, P]) allocationFailure(op string, cause error, requested int) error {
	reason := "allocator"
	switch {
	case stderrors.Is(cause, errors.ErrCapacityExceeded):
		reason = "ceiling"
	case stderrors.Is(cause, errors.ErrMisalignedBlock):
		reason = "alignment"
	}
	metrics.BufferAllocationFailuresTotal.WithLabelValues(reason).Inc()

	if b.log != nil {
		b.log.Warn().
			Str("op", op).
			Str("policy", b.Policy()).
			Str("reason", reason).
			Int("requested", requested).
			Int("capacity", b.Cap()).
			Err(cause).
			Msg("buffer growth failed")
	}
	return errors.Allocation(cause, op, "cannot grow buffer").
		WithContext("requested", requested).
		WithContext("capacity", b.Cap()).
		WithContext("max_capacity", b.MaxCap())
}
