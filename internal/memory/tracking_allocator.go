package memory

import (
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dzidzitop/libafc/internal/metrics"
)

// TrackingAllocator wraps a base memory.Allocator and updates Prometheus metrics
type TrackingAllocator struct {
	memory.Allocator
	// Exposed for tests; the main purpose is metrics
	BytesAllocated atomic.Int64
	BytesFreed     atomic.Int64
	Allocations    atomic.Int64
	Frees          atomic.Int64
}

// NewTrackingAllocator creates a new allocator that wraps the given base allocator.
// If base is nil, it uses memory.DefaultAllocator.
func NewTrackingAllocator(base memory.Allocator) *TrackingAllocator {
	if base == nil {
		base = memory.DefaultAllocator
	}
	return &TrackingAllocator{Allocator: base}
}

func (a *TrackingAllocator) Allocate(size int) []byte {
	b := a.Allocator.Allocate(size)
	if b == nil {
		return nil
	}
	a.BytesAllocated.Add(int64(size))
	a.Allocations.Add(1)
	metrics.AllocatorBytesAllocatedTotal.Add(float64(size))
	metrics.AllocatorAllocationsActive.Inc()
	return b
}

func (a *TrackingAllocator) Reallocate(size int, b []byte) []byte {
	// Counted as fresh bytes to show churn; the live count does not change.
	a.BytesAllocated.Add(int64(size))
	metrics.AllocatorBytesAllocatedTotal.Add(float64(size))
	return a.Allocator.Reallocate(size, b)
}

func (a *TrackingAllocator) Free(b []byte) {
	a.BytesFreed.Add(int64(len(b)))
	a.Frees.Add(1)
	metrics.AllocatorBytesFreedTotal.Add(float64(len(b)))
	metrics.AllocatorAllocationsActive.Dec()
	a.Allocator.Free(b)
}

// Live returns the number of allocations not yet freed.
func (a *TrackingAllocator) Live() int64 {
	return a.Allocations.Load() - a.Frees.Load()
}

// Ensure interface satisfaction
var _ memory.Allocator = (*TrackingAllocator)(nil)
