package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError_Error(t *testing.T) {
	// Test error without cause
	err := New(ErrorTypeContract, "append", "not enough room")
	assert.Equal(t, "[contract] append: not enough room", err.Error())

	// Test error with cause
	cause := errors.New("underlying error")
	err = Wrap(cause, ErrorTypeAllocation, "reserve", "grow failed")
	assert.Contains(t, err.Error(), "[allocation] reserve: grow failed")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestStructuredError_WithContext(t *testing.T) {
	err := New(ErrorTypeAllocation, "reserve", "too big")
	err = err.WithContext("requested", 42).WithContext("policy", "pow2")

	assert.Equal(t, 42, err.Context["requested"])
	assert.Equal(t, "pow2", err.Context["policy"])
}

func TestSentinelHierarchy(t *testing.T) {
	allocation := []error{ErrCapacityExceeded, ErrAllocatorExhausted, ErrMisalignedBlock}
	for _, err := range allocation {
		assert.ErrorIs(t, err, ErrAllocationFailure)
		assert.NotErrorIs(t, err, ErrContractViolation)
	}

	contract := []error{
		ErrInsufficientCapacity, ErrTailOutstanding, ErrNoTailBorrowed,
		ErrForeignTail, ErrOutOfRange, ErrCopiedBuffer,
	}
	for _, err := range contract {
		assert.ErrorIs(t, err, ErrContractViolation)
		assert.NotErrorIs(t, err, ErrAllocationFailure)
	}
}

func TestConstructorsKeepCause(t *testing.T) {
	err := Allocation(ErrCapacityExceeded, "reserve", "ceiling")
	assert.Equal(t, ErrorTypeAllocation, err.Type)
	assert.True(t, IsAllocationFailure(err))
	assert.False(t, IsContractViolation(err))

	err = Contract(ErrForeignTail, "return_tail", "bad slice")
	assert.Equal(t, ErrorTypeContract, err.Type)
	assert.True(t, IsContractViolation(err))
	assert.ErrorIs(t, err, ErrForeignTail)

	// Test that Wrap returns nil for nil error
	assert.Nil(t, Wrap(nil, ErrorTypeStorage, "op", "msg"))
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "allocation", string(ErrorTypeAllocation))
	assert.Equal(t, "contract", string(ErrorTypeContract))
	assert.Equal(t, "configuration", string(ErrorTypeConfiguration))
	assert.Equal(t, "storage", string(ErrorTypeStorage))
}

func TestStackTraceCapture(t *testing.T) {
	err := New(ErrorTypeContract, "test", "message")
	// Should have captured some stack frames
	assert.Greater(t, len(err.Stack), 0)
}
