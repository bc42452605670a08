package memory

import (
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dzidzitop/libafc/internal/metrics"
)

// LimitedAllocator refuses allocations that would push the live byte
// count over a fixed budget. A refusal is reported by returning nil,
// which buffers turn into an allocation failure.
type LimitedAllocator struct {
	base  memory.Allocator
	limit int64
	used  atomic.Int64
}

// NewLimitedAllocator caps base at limit bytes. If base is nil, it uses
// memory.DefaultAllocator.
func NewLimitedAllocator(base memory.Allocator, limit int64) *LimitedAllocator {
	if base == nil {
		base = memory.DefaultAllocator
	}
	return &LimitedAllocator{base: base, limit: limit}
}

func (a *LimitedAllocator) reserve(size int64) bool {
	for {
		used := a.used.Load()
		if size > a.limit-used {
			metrics.AllocatorLimitRejectionsTotal.Inc()
			return false
		}
		if a.used.CompareAndSwap(used, used+size) {
			return true
		}
	}
}

func (a *LimitedAllocator) Allocate(size int) []byte {
	if !a.reserve(int64(size)) {
		return nil
	}
	b := a.base.Allocate(size)
	if b == nil {
		a.used.Add(-int64(size))
	}
	return b
}

func (a *LimitedAllocator) Reallocate(size int, b []byte) []byte {
	delta := int64(size - len(b))
	if delta > 0 && !a.reserve(delta) {
		return nil
	}
	if delta < 0 {
		a.used.Add(delta)
	}
	return a.base.Reallocate(size, b)
}

func (a *LimitedAllocator) Free(b []byte) {
	a.used.Add(-int64(len(b)))
	a.base.Free(b)
}

// Used returns the live byte count.
func (a *LimitedAllocator) Used() int64 { return a.used.Load() }

// Limit returns the budget in bytes.
func (a *LimitedAllocator) Limit() int64 { return a.limit }

var _ memory.Allocator = (*LimitedAllocator)(nil)
