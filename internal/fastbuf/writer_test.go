package fastbuf

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzidzitop/libafc/internal/errors"
	"github.com/dzidzitop/libafc/internal/growth"
	afcmemory "github.com/dzidzitop/libafc/internal/memory"
)

func TestWriter_Fprintf(t *testing.T) {
	b := New[byte, growth.Pow2]()
	defer b.Release()
	w := NewWriter(b)

	_, err := fmt.Fprintf(w, "%s=%d;", "answer", 42)
	require.NoError(t, err)
	require.NoError(t, w.WriteByte('x'))
	_, err = w.WriteString(strings.Repeat("y", 100))
	require.NoError(t, err)

	assert.Equal(t, "answer=42;x"+strings.Repeat("y", 100), String(b))
	assert.Same(t, b, w.Buffer())
	assert.Equal(t, 127, b.Cap())
}

func TestWriter_SelfWriteAcrossGrowth(t *testing.T) {
	tracker := afcmemory.NewTrackingAllocator(nil)
	b, err := NewWithCapacity[byte, growth.Exact](4, WithAllocator(tracker))
	require.NoError(t, err)
	defer b.Release()
	w := NewWriter(b)

	_, err = w.WriteString("abcd")
	require.NoError(t, err)

	// The view lives in the block that this write replaces.
	n, err := w.Write(b.View())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcdabcd", String(b))
	assert.Equal(t, int64(1), tracker.Frees.Load())
}

func TestWriter_ExactGrowsToFit(t *testing.T) {
	b := New[byte, growth.Exact]()
	defer b.Release()
	w := NewWriter(b)

	for i := 0; i < 3; i++ {
		_, err := w.Write([]byte("ab"))
		require.NoError(t, err)
		assert.Equal(t, 2*(i+1), b.Cap())
	}
}

func TestWriter_PropagatesFailure(t *testing.T) {
	limited := afcmemory.NewLimitedAllocator(nil, 8)
	b := New[byte, growth.Pow2](WithAllocator(limited))
	defer b.Release()
	w := NewWriter(b)

	n, err := w.WriteString(strings.Repeat("z", 64))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, errors.ErrAllocationFailure)
	assert.Equal(t, 0, b.Len())
}
