package memory

import (
	"math/bits"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dzidzitop/libafc/internal/metrics"
)

const (
	// Size classes are the powers of two from 64B to 1MB.
	minSlabShift = 6
	maxSlabShift = 20

	// DefaultMaxPooled is the number of free blocks kept per size class.
	DefaultMaxPooled = 100
)

// slabClass recycles blocks of one fixed size.
type slabClass struct {
	pool        sync.Pool
	size        int
	label       string
	activeCount atomic.Int64 // blocks handed out and not yet freed
	pooledCount atomic.Int64 // blocks waiting in the pool
	maxPooled   int64
}

func newSlabClass(size int, maxPooled int64) *slabClass {
	return &slabClass{size: size, label: strconv.Itoa(size), maxPooled: maxPooled}
}

func (c *slabClass) get() []byte {
	c.activeCount.Add(1)
	if v := c.pool.Get(); v != nil {
		c.pooledCount.Add(-1)
		metrics.SlabAllocationsTotal.WithLabelValues(c.label, "hit").Inc()
		return *v.(*[]byte)
	}
	metrics.SlabAllocationsTotal.WithLabelValues(c.label, "miss").Inc()
	return make([]byte, c.size)
}

func (c *slabClass) put(b []byte) {
	c.activeCount.Add(-1)
	if c.pooledCount.Load() >= c.maxPooled {
		// Left to the garbage collector.
		return
	}
	c.pooledCount.Add(1)
	c.pool.Put(&b)
}

// SlabAllocator implements memory.Allocator over per-size-class pools of
// recycled blocks. It pairs well with power-of-two growth, whose storage
// sizes land exactly on a class. Requests above 1MB bypass the pools.
//
// Recycled blocks are NOT zeroed.
type SlabAllocator struct {
	classes []*slabClass
}

// NewSlabAllocator creates an allocator keeping at most maxPooled free
// blocks per size class. A non-positive maxPooled selects
// DefaultMaxPooled.
func NewSlabAllocator(maxPooled int) *SlabAllocator {
	if maxPooled <= 0 {
		maxPooled = DefaultMaxPooled
	}
	a := &SlabAllocator{}
	for shift := minSlabShift; shift <= maxSlabShift; shift++ {
		a.classes = append(a.classes, newSlabClass(1<<shift, int64(maxPooled)))
	}
	return a
}

// classFor returns the smallest class holding size bytes, or nil when
// size is above the largest class.
func (a *SlabAllocator) classFor(size int) *slabClass {
	if size > 1<<maxSlabShift {
		return nil
	}
	shift := minSlabShift
	if size > 1 {
		shift = max(bits.Len(uint(size-1)), minSlabShift)
	}
	return a.classes[shift-minSlabShift]
}

// Allocate returns a block of size bytes whose capacity is its size class.
func (a *SlabAllocator) Allocate(size int) []byte {
	c := a.classFor(size)
	if c == nil {
		metrics.SlabAllocationsTotal.WithLabelValues("large", "miss").Inc()
		return make([]byte, size)
	}
	return c.get()[:size]
}

// Reallocate moves b into a block of size bytes.
func (a *SlabAllocator) Reallocate(size int, b []byte) []byte {
	if c := a.classFor(size); c != nil && cap(b) == c.size {
		return b[:size]
	}
	nb := a.Allocate(size)
	copy(nb, b)
	a.Free(b)
	return nb
}

// Free returns b to its class pool. Blocks this allocator did not hand out
// are ignored.
func (a *SlabAllocator) Free(b []byte) {
	c := a.classFor(cap(b))
	if c == nil || cap(b) != c.size {
		return
	}
	c.put(b[:c.size])
}

// ActiveCount returns the number of blocks currently in use
func (a *SlabAllocator) ActiveCount() int64 {
	var n int64
	for _, c := range a.classes {
		n += c.activeCount.Load()
	}
	return n
}

// PooledCount returns the number of blocks currently in the pools
func (a *SlabAllocator) PooledCount() int64 {
	var n int64
	for _, c := range a.classes {
		n += c.pooledCount.Load()
	}
	return n
}

var _ memory.Allocator = (*SlabAllocator)(nil)
