package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Buffer Growth Metrics
// =============================================================================

var (
	// BufferGrowTotal counts reallocations by growth policy
	BufferGrowTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastbuf_grow_total",
			Help: "Total number of buffer reallocations by growth policy",
		},
		[]string{"policy"},
	)

	// BufferGrowElements observes the storage size chosen on each growth
	BufferGrowElements = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fastbuf_grow_storage_elements",
			Help:    "Storage size in elements chosen on growth",
			Buckets: prometheus.ExponentialBuckets(2, 4, 12),
		},
		[]string{"policy"},
	)

	// BufferAllocationFailuresTotal counts failed growth attempts
	BufferAllocationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastbuf_allocation_failures_total",
			Help: "Total number of failed buffer growth attempts",
		},
		[]string{"reason"}, // "ceiling", "allocator", "alignment"
	)

	// BufferContractViolationsTotal counts rejected calls
	BufferContractViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastbuf_contract_violations_total",
			Help: "Total number of calls rejected for violating a precondition",
		},
		[]string{"op"},
	)

	// BufferDetachTotal counts blocks handed over to callers
	BufferDetachTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fastbuf_detach_total",
			Help: "Total number of storage blocks detached from buffers",
		},
	)
)

// =============================================================================
// Allocator Metrics
// =============================================================================

var (
	AllocatorBytesAllocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fastbuf_allocated_bytes_total",
			Help: "Total bytes allocated through tracking allocators",
		},
	)

	AllocatorBytesFreedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fastbuf_freed_bytes_total",
			Help: "Total bytes freed through tracking allocators",
		},
	)

	AllocatorAllocationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fastbuf_allocator_active_allocations",
			Help: "Current number of live allocations in tracking allocators",
		},
	)

	// AllocatorLimitRejectionsTotal counts requests refused by a memory budget
	AllocatorLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fastbuf_allocator_limit_rejections_total",
			Help: "Total number of allocations refused by a memory limit",
		},
	)

	// SlabAllocationsTotal counts slab allocator requests by size class and
	// whether a recycled block served them
	SlabAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastbuf_slab_allocations_total",
			Help: "Total number of slab allocator requests by size class",
		},
		[]string{"class", "result"}, // result: "hit", "miss"
	)

	// ArenaChunksTotal counts chunks created by arena allocators
	ArenaChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fastbuf_arena_chunks_total",
			Help: "Total number of chunks allocated by arena allocators",
		},
	)
)

// =============================================================================
// Pool Metrics
// =============================================================================

// PoolOperationsTotal counts buffer pool Get/Put/Drop operations
var PoolOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fastbuf_pool_operations_total",
		Help: "Total number of buffer pool operations",
	},
	[]string{"operation"},
)

// =============================================================================
// Logging Metrics
// =============================================================================

var (
	// LogEntriesTotal counts log entries by level
	LogEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastbuf_log_entries_total",
			Help: "Total number of log entries by level",
		},
		[]string{"level"},
	)
)

// =============================================================================
// Bench Metrics
// =============================================================================

var (
	BenchRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastbuf_bench_records_total",
			Help: "Total number of records serialized by the bench tool",
		},
		[]string{"policy"},
	)

	BenchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fastbuf_bench_bytes_total",
			Help: "Total number of bytes produced by the bench tool",
		},
		[]string{"policy"},
	)
)
