package memory

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dzidzitop/libafc/internal/errors"
)

// Allocate obtains a block of exactly size bytes from alloc. A nil block,
// a short block or a panic inside the allocator (such as the runtime's
// "makeslice: len out of range") is reported as an allocation failure.
// Exhausting the Go heap itself is fatal to the process and cannot be
// reported.
func Allocate(alloc memory.Allocator, size int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = errors.Allocation(errors.ErrAllocatorExhausted, "allocate", fmt.Sprint(r)).
				WithContext("bytes", size)
		}
	}()

	b = alloc.Allocate(size)
	if b == nil || len(b) < size {
		if b != nil {
			alloc.Free(b)
		}
		return nil, errors.Allocation(errors.ErrAllocatorExhausted, "allocate", "allocator returned no memory").
			WithContext("bytes", size)
	}
	return b, nil
}
