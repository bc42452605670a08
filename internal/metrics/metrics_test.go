package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	collectors := map[string]prometheus.Collector{
		"fastbuf_grow_total":                       BufferGrowTotal,
		"fastbuf_grow_storage_elements":            BufferGrowElements,
		"fastbuf_allocation_failures_total":        BufferAllocationFailuresTotal,
		"fastbuf_contract_violations_total":        BufferContractViolationsTotal,
		"fastbuf_detach_total":                     BufferDetachTotal,
		"fastbuf_allocated_bytes_total":            AllocatorBytesAllocatedTotal,
		"fastbuf_freed_bytes_total":                AllocatorBytesFreedTotal,
		"fastbuf_allocator_active_allocations":     AllocatorAllocationsActive,
		"fastbuf_allocator_limit_rejections_total": AllocatorLimitRejectionsTotal,
		"fastbuf_slab_allocations_total":           SlabAllocationsTotal,
		"fastbuf_arena_chunks_total":               ArenaChunksTotal,
		"fastbuf_pool_operations_total":            PoolOperationsTotal,
		"fastbuf_log_entries_total":                LogEntriesTotal,
		"fastbuf_bench_records_total":              BenchRecordsTotal,
		"fastbuf_bench_bytes_total":                BenchBytesTotal,
	}

	for name, c := range collectors {
		t.Run(name, func(t *testing.T) {
			// promauto registered it already.
			err := prometheus.DefaultRegisterer.Register(c)
			var are prometheus.AlreadyRegisteredError
			require.ErrorAs(t, err, &are)
		})
	}
}

func TestCounterVecs(t *testing.T) {
	BufferGrowTotal.WithLabelValues("pow2").Inc()
	BufferGrowTotal.WithLabelValues("exact").Add(2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(BufferGrowTotal.WithLabelValues("exact")), 2.0)

	before := testutil.ToFloat64(BufferAllocationFailuresTotal.WithLabelValues("ceiling"))
	BufferAllocationFailuresTotal.WithLabelValues("ceiling").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(BufferAllocationFailuresTotal.WithLabelValues("ceiling")))
}

func TestCollect(t *testing.T) {
	BufferGrowElements.WithLabelValues("pow2").Observe(16)
	BufferGrowElements.WithLabelValues("pow2").Observe(1024)

	expected := `
# HELP fastbuf_detach_total Total number of storage blocks detached from buffers
# TYPE fastbuf_detach_total counter
fastbuf_detach_total 0
`
	require.NoError(t, testutil.CollectAndCompare(BufferDetachTotal, strings.NewReader(expected)))
	assert.Equal(t, 1, testutil.CollectAndCount(BufferGrowElements))
}
