// Package growth holds the capacity arithmetic shared by every buffer:
// the structural ceiling and the two growth policies.
//
// Sizes come in two flavours. A capacity counts logical elements. A
// storage size counts allocated elements and is always capacity+1, the
// extra element being the terminator slot.
package growth

import (
	"math"
	"math/bits"

	"github.com/dzidzitop/libafc/internal/errors"
)

// Policy decides how much storage to allocate when a buffer has to grow.
// Implementations are zero-size value types so that a buffer picks its
// policy through a type parameter.
type Policy interface {
	// NextStorageSize returns the new storage size for a buffer of the
	// given capacity asked to hold requested elements. Callers guarantee
	// capacity < requested <= maxCapacity.
	NextStorageSize(capacity, requested, maxCapacity int) int
	Name() string
}

// Pow2 grows storage to powers of two, doubling the current storage.
type Pow2 struct{}

// Exact grows storage to exactly the requested capacity plus the
// terminator slot.
type Exact struct{}

var (
	_ Policy = Pow2{}
	_ Policy = Exact{}
)

func (Pow2) Name() string  { return "pow2" }
func (Exact) Name() string { return "exact" }

// NextStorageSize doubles capacity+1 until it holds requested+1.
// A storage size above half the ceiling is never doubled; it is clamped
// to the ceiling, which already holds any legal request.
func (Pow2) NextStorageSize(capacity, requested, maxCapacity int) int {
	maxStorage := maxCapacity + 1
	want := requested + 1

	n := capacity + 1
	for n < want {
		if n > maxStorage/2 {
			return maxStorage
		}
		n *= 2
	}
	return min(n, maxStorage)
}

func (Exact) NextStorageSize(_, requested, _ int) int {
	return requested + 1
}

// MaxCapacity returns the largest capacity of a buffer whose elements
// are elemSize bytes wide. The storage size in bytes, (cap+1)*elemSize,
// always fits in an int.
func MaxCapacity(elemSize int) int {
	if elemSize <= 0 {
		elemSize = 1
	}
	// Both the address space and the element count are bounded by int.
	return math.MaxInt/elemSize - 1
}

// NextCapacity is the pure form of a buffer's reserve decision: it returns
// the capacity a buffer holding current elements must grow to so that it
// can hold requested elements under policy p.
//
// It returns current when no growth is needed. A request above
// maxCapacity is an allocation failure; a negative request is a contract
// violation.
func NextCapacity(current, requested, maxCapacity int, p Policy) (int, error) {
	if requested < 0 {
		return current, errors.Contract(errors.ErrOutOfRange, "next_capacity", "negative capacity requested").
			WithContext("requested", requested)
	}
	if requested > maxCapacity {
		return current, errors.Allocation(errors.ErrCapacityExceeded, "next_capacity", "capacity above ceiling").
			WithContext("requested", requested).
			WithContext("max_capacity", maxCapacity)
	}
	if requested <= current {
		return current, nil
	}
	return p.NextStorageSize(current, requested, maxCapacity) - 1, nil
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}
