package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dzidzitop/libafc/internal/metrics"
)

const (
	// DefaultArenaChunkSize is 1MB
	DefaultArenaChunkSize = 1024 * 1024

	// arenaAlign keeps every block usable for elements up to 8 bytes wide.
	arenaAlign = 8

	// minArenaChunkSize keeps chunks out of the runtime's tiny allocator,
	// which does not guarantee 8-byte alignment.
	minArenaChunkSize = 64
)

// ArenaAllocator implements memory.Allocator by carving blocks out of large
// chunks. It suits many short-lived buffers: Free is bookkeeping only and the
// memory comes back all at once on Release.
type ArenaAllocator struct {
	mu           sync.Mutex
	chunkSize    int
	currentChunk []byte
	offset       int
	allocated    int64
	chunks       []*[]byte
	pool         *sync.Pool
}

// NewArenaAllocator creates an allocator with chunks of chunkSize bytes.
// A non-positive chunkSize selects DefaultArenaChunkSize, whose chunks are
// shared through a global pool.
func NewArenaAllocator(chunkSize int) *ArenaAllocator {
	if chunkSize <= 0 {
		chunkSize = DefaultArenaChunkSize
	}
	chunkSize = max(chunkSize, minArenaChunkSize)
	a := &ArenaAllocator{chunkSize: chunkSize}
	if chunkSize == DefaultArenaChunkSize {
		a.pool = globalChunkPool
	}
	return a
}

var globalChunkPool = &sync.Pool{
	New: func() interface{} {
		b := make([]byte, DefaultArenaChunkSize)
		return &b
	},
}

func (a *ArenaAllocator) newChunk() *[]byte {
	metrics.ArenaChunksTotal.Inc()
	if a.pool != nil {
		return a.pool.Get().(*[]byte)
	}
	b := make([]byte, a.chunkSize)
	return &b
}

// Allocate allocates a slice of size bytes aligned to 8 bytes.
func (a *ArenaAllocator) Allocate(size int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Oversized requests get a dedicated chunk
	if size > a.chunkSize {
		b := make([]byte, size)
		a.chunks = append(a.chunks, &b)
		atomic.AddInt64(&a.allocated, int64(size))
		return b[:size:size]
	}

	start := alignUp(a.offset)
	if a.currentChunk != nil && start+size <= len(a.currentChunk) {
		a.offset = start + size
		atomic.AddInt64(&a.allocated, int64(size))
		return a.currentChunk[start:a.offset:a.offset]
	}

	// Need new chunk
	chunkPtr := a.newChunk()
	a.chunks = append(a.chunks, chunkPtr)
	a.currentChunk = *chunkPtr
	a.offset = size
	atomic.AddInt64(&a.allocated, int64(size))
	return a.currentChunk[:size:size]
}

// Reallocate resizes a slice.
func (a *ArenaAllocator) Reallocate(size int, b []byte) []byte {
	if size == len(b) {
		return b
	}
	newBuf := a.Allocate(size)
	copy(newBuf, b)
	a.Free(b)
	return newBuf
}

// Free only adjusts the allocated counter; chunks are reclaimed on Release.
func (a *ArenaAllocator) Free(b []byte) {
	atomic.AddInt64(&a.allocated, -int64(len(b)))
}

// Allocated returns total bytes currently allocated.
func (a *ArenaAllocator) Allocated() int64 {
	return atomic.LoadInt64(&a.allocated)
}

// Chunks returns the number of chunks held.
func (a *ArenaAllocator) Chunks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.chunks)
}

// Release returns all chunks to the pool. No block handed out before the
// call may be used afterwards.
func (a *ArenaAllocator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, chunkPtr := range a.chunks {
		if a.pool != nil && cap(*chunkPtr) == a.chunkSize {
			a.pool.Put(chunkPtr)
		}
	}
	a.chunks = nil
	a.currentChunk = nil
	a.offset = 0
	atomic.StoreInt64(&a.allocated, 0)
}

// AssertSize returns an error if the live byte count differs from sz.
func (a *ArenaAllocator) AssertSize(sz int) error {
	if int(a.Allocated()) != sz {
		return fmt.Errorf("allocator size mismatch: expected %d, got %d", sz, a.Allocated())
	}
	return nil
}

func alignUp(n int) int {
	return (n + arenaAlign - 1) &^ (arenaAlign - 1)
}

var _ memory.Allocator = (*ArenaAllocator)(nil)
