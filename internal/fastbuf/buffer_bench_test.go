package fastbuf

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/dzidzitop/libafc/internal/growth"
)

var benchLine = []byte("2026-10-17T12:00:00Z level=info msg=\"request served\" status=200\n")

func benchmarkAppend[P growth.Policy](b *testing.B) {
	b.ReportAllocs()
	buf := New[byte, P]()
	defer buf.Release()
	for i := 0; i < b.N; i++ {
		buf.Clear()
		for j := 0; j < 64; j++ {
			if err := buf.Grow(len(benchLine)); err != nil {
				b.Fatal(err)
			}
			if err := buf.Append(benchLine...); err != nil {
				b.Fatal(err)
			}
		}
	}
	b.SetBytes(int64(64 * len(benchLine)))
}

func BenchmarkAppend_Pow2(b *testing.B)  { benchmarkAppend[growth.Pow2](b) }
func BenchmarkAppend_Exact(b *testing.B) { benchmarkAppend[growth.Exact](b) }

func BenchmarkAppend_FreshPow2(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := New[byte, growth.Pow2]()
		for j := 0; j < 64; j++ {
			_ = buf.ReserveForOne()
			_ = buf.AppendOne('x')
		}
		buf.Release()
	}
}

func BenchmarkAppend_FreshExact(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := New[byte, growth.Exact]()
		for j := 0; j < 64; j++ {
			_ = buf.ReserveForOne()
			_ = buf.AppendOne('x')
		}
		buf.Release()
	}
}

func BenchmarkBytesBuffer(b *testing.B) {
	b.ReportAllocs()
	var buf bytes.Buffer
	for i := 0; i < b.N; i++ {
		buf.Reset()
		for j := 0; j < 64; j++ {
			buf.Write(benchLine)
		}
	}
	b.SetBytes(int64(64 * len(benchLine)))
}

func BenchmarkTail_AppendInt(b *testing.B) {
	b.ReportAllocs()
	buf, err := NewWithCapacity[byte, growth.Pow2](1024)
	if err != nil {
		b.Fatal(err)
	}
	defer buf.Release()
	for i := 0; i < b.N; i++ {
		buf.Clear()
		for j := int64(0); j < 32; j++ {
			tail, _ := buf.BorrowTail()
			if err := buf.ReturnTail(strconv.AppendInt(tail[:0], j*1_000_003, 10)); err != nil {
				b.Fatal(err)
			}
		}
	}
}
