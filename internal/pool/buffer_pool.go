package pool

import (
	"sync"

	"github.com/dzidzitop/libafc/internal/fastbuf"
	"github.com/dzidzitop/libafc/internal/growth"
	"github.com/dzidzitop/libafc/internal/metrics"
)

// DefaultMaxRetained is the largest capacity, in elements, a pooled
// buffer may keep when returned.
const DefaultMaxRetained = 64 << 10

// BufferPool pools buffers to keep their storage across hot-path uses
// (record serialization, log line assembly).
//
// Buffers the pool drops are reclaimed by the garbage collector without
// Release, so the options given must not name an allocator that needs an
// explicit Free (a checked or budgeted allocator, for instance).
type BufferPool[T fastbuf.Char, P growth.Policy] struct {
	pool        sync.Pool
	maxRetained int
}

// NewBufferPool creates a pool whose fresh buffers are built with opts.
// A maxRetained of zero or less selects DefaultMaxRetained.
func NewBufferPool[T fastbuf.Char, P growth.Policy](maxRetained int, opts ...fastbuf.Option) *BufferPool[T, P] {
	if maxRetained <= 0 {
		maxRetained = DefaultMaxRetained
	}
	return &BufferPool[T, P]{
		pool: sync.Pool{
			New: func() any {
				return fastbuf.New[T, P](opts...)
			},
		},
		maxRetained: maxRetained,
	}
}

// Get retrieves a buffer from the pool.
// The buffer is guaranteed to be empty (Clear called).
func (p *BufferPool[T, P]) Get() *fastbuf.Buffer[T, P] {
	metrics.PoolOperationsTotal.WithLabelValues("get").Inc()
	return p.pool.Get().(*fastbuf.Buffer[T, P])
}

// Put returns a buffer to the pool after clearing it. A buffer grown
// past the retention cap is released instead. An outstanding tail is
// returned unused.
func (p *BufferPool[T, P]) Put(buf *fastbuf.Buffer[T, P]) {
	if buf == nil {
		return
	}
	if buf.Borrowed() {
		if err := buf.ReturnTail(nil); err != nil {
			// Copied by value; the original still owns the storage.
			metrics.PoolOperationsTotal.WithLabelValues("drop").Inc()
			return
		}
	}
	if buf.Cap() > p.maxRetained {
		metrics.PoolOperationsTotal.WithLabelValues("drop").Inc()
		buf.Release()
		return
	}
	metrics.PoolOperationsTotal.WithLabelValues("put").Inc()
	buf.Clear()
	p.pool.Put(buf)
}

// MaxRetained returns the retention cap in elements.
func (p *BufferPool[T, P]) MaxRetained() int { return p.maxRetained }
