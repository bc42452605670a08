package fastbuf

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dzidzitop/libafc/internal/growth"
)

// fuzzOps replays ops against a buffer and a plain slice model. Each op
// byte selects an operation in its low three bits and an argument in the
// rest.
func fuzzOps[P growth.Policy](t *testing.T, ops []byte) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b := New[byte, P](WithAllocator(mem))
	defer b.Release()
	var model []byte

	for i, op := range ops {
		arg := int(op >> 3)
		switch op & 7 {
		case 0:
			if err := b.Reserve(b.Len() + arg); err != nil {
				t.Fatalf("op %d: reserve: %v", i, err)
			}
		case 1:
			chunk := bytes.Repeat([]byte{op}, arg)
			avail := b.Available()
			err := b.Append(chunk...)
			if arg > avail {
				if err == nil {
					t.Fatalf("op %d: append of %d accepted with %d available", i, arg, avail)
				}
				continue
			}
			if err != nil {
				t.Fatalf("op %d: append: %v", i, err)
			}
			model = append(model, chunk...)
		case 2:
			if err := b.ReserveForOne(); err != nil {
				t.Fatalf("op %d: reserve for one: %v", i, err)
			}
			if err := b.AppendOne(op); err != nil {
				t.Fatalf("op %d: append one: %v", i, err)
			}
			model = append(model, op)
		case 3:
			// Self-append of a prefix.
			n := min(arg, b.Len(), b.Available())
			if err := b.Append(b.View()[:n]...); err != nil {
				t.Fatalf("op %d: self append: %v", i, err)
			}
			model = append(model, model[:n]...)
		case 4:
			tail, err := b.BorrowTail()
			if err != nil {
				t.Fatalf("op %d: borrow: %v", i, err)
			}
			n := min(arg, len(tail))
			for j := range n {
				tail[j] = op
			}
			if err := b.ReturnTail(tail[:n]); err != nil {
				t.Fatalf("op %d: return: %v", i, err)
			}
			model = append(model, bytes.Repeat([]byte{op}, n)...)
		case 5:
			if err := b.Grow(arg); err != nil {
				t.Fatalf("op %d: grow: %v", i, err)
			}
		case 6:
			n := min(arg, b.Len())
			if err := b.Resize(n); err != nil {
				t.Fatalf("op %d: resize: %v", i, err)
			}
			model = model[:n]
		case 7:
			if arg == 0 {
				b.Clear()
				model = model[:0]
			}
		}

		if b.Len() != len(model) || b.Len() > b.Cap() {
			t.Fatalf("op %d: len %d cap %d model %d", i, b.Len(), b.Cap(), len(model))
		}
		if !bytes.Equal(b.View(), model) {
			t.Fatalf("op %d: content diverged from model", i)
		}
	}

	cs := b.CString()
	if len(cs) != len(model)+1 || cs[len(model)] != 0 {
		t.Fatalf("bad terminator")
	}
}

func FuzzBuffer_Pow2(f *testing.F) {
	f.Add([]byte{0x50, 0x29, 0x02, 0x03, 0xfc, 0x31, 0x07})
	f.Add([]byte{0x02, 0x02, 0x02, 0x02, 0x02})
	f.Fuzz(func(t *testing.T, ops []byte) {
		fuzzOps[growth.Pow2](t, ops)
	})
}

func FuzzBuffer_Exact(f *testing.F) {
	f.Add([]byte{0x50, 0x29, 0x02, 0x03, 0xfc, 0x31, 0x07})
	f.Add([]byte{0x45, 0x44, 0x0b, 0x06, 0x33})
	f.Fuzz(func(t *testing.T, ops []byte) {
		fuzzOps[growth.Exact](t, ops)
	})
}
