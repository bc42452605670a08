// Package fastbuf implements a character buffer for hot-path text
// assembly that grows only when asked to.
//
// # Capacity
//
// A Buffer never grows implicitly. Callers Reserve (or Grow) up front and
// then append; an append that does not fit is rejected with an error
// wrapping errors.ErrContractViolation and leaves the buffer untouched.
// Storage always holds one element more than Cap() so that CString can
// terminate the content in place.
//
//	b := fastbuf.New[byte, growth.Pow2]()
//	defer b.Release()
//
//	if err := b.Reserve(5); err != nil { // Cap() == 7
//	    return err
//	}
//	_ = fastbuf.AppendString(b, "hello")
//	cstr := b.CString() // "hello\x00"
//
// The growth policy is a type parameter: growth.Pow2 doubles storage for
// amortised O(1) appends, growth.Exact allocates exactly what is asked.
// Failed growth returns an error wrapping errors.ErrAllocationFailure and
// leaves content and capacity unchanged.
//
// # Borrowed tail
//
// Producers that format straight into memory borrow the unused tail and
// return the prefix they wrote:
//
//	tail, _ := b.BorrowTail()
//	_ = b.ReturnTail(strconv.AppendInt(tail[:0], 42, 10))
//
// Produce wraps the same protocol in a callback.
//
// # Ownership
//
// A Buffer owns its block exclusively. MoveFrom, Swap and Take transfer it
// between buffers, Detach hands it to the caller, and Release returns it
// to the allocator (arrow's memory.DefaultAllocator unless WithAllocator
// is given).
package fastbuf
