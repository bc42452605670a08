package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// Error types for different categories of failures
type ErrorType string

const (
	// ErrorTypeAllocation covers growth that could not be satisfied.
	ErrorTypeAllocation ErrorType = "allocation"
	// ErrorTypeContract covers violated caller preconditions.
	ErrorTypeContract      ErrorType = "contract"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeStorage       ErrorType = "storage"
)

// Root sentinels. Every cause below wraps exactly one of them.
var (
	ErrAllocationFailure = stderrors.New("allocation failure")
	ErrContractViolation = stderrors.New("contract violation")
)

var (
	ErrCapacityExceeded   = fmt.Errorf("%w: requested capacity exceeds maximum", ErrAllocationFailure)
	ErrAllocatorExhausted = fmt.Errorf("%w: allocator could not supply memory", ErrAllocationFailure)
	ErrMisalignedBlock    = fmt.Errorf("%w: allocator returned a misaligned block", ErrAllocationFailure)

	ErrInsufficientCapacity = fmt.Errorf("%w: not enough capacity", ErrContractViolation)
	ErrTailOutstanding      = fmt.Errorf("%w: a tail is already borrowed", ErrContractViolation)
	ErrNoTailBorrowed       = fmt.Errorf("%w: no tail is borrowed", ErrContractViolation)
	ErrForeignTail          = fmt.Errorf("%w: returned slice is not the borrowed tail", ErrContractViolation)
	ErrOutOfRange           = fmt.Errorf("%w: value out of range", ErrContractViolation)
	ErrCopiedBuffer         = fmt.Errorf("%w: buffer copied by value", ErrContractViolation)
)

// StructuredError provides rich error context
type StructuredError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Stack     []uintptr
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Operation, e.Message)
}

// Unwrap returns the underlying cause
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new structured error
func New(errType ErrorType, operation, message string) *StructuredError {
	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, operation, message string) *StructuredError {
	if err == nil {
		return nil
	}

	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Cause:     err,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// WithContext adds context information to an error
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// captureStack captures the current stack trace
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // Skip runtime.Callers, this function and the constructor
	return pcs[:n]
}

// Allocation wraps cause as an allocation failure of operation.
func Allocation(cause error, operation, message string) *StructuredError {
	return Wrap(cause, ErrorTypeAllocation, operation, message)
}

// Contract wraps cause as a contract violation of operation.
func Contract(cause error, operation, message string) *StructuredError {
	return Wrap(cause, ErrorTypeContract, operation, message)
}

// WrapConfigurationError wraps an error as a configuration error
func WrapConfigurationError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeConfiguration, operation, message)
}

// WrapStorageError wraps an error as a storage error
func WrapStorageError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeStorage, operation, message)
}

// IsAllocationFailure reports whether err is, or wraps, an allocation failure.
func IsAllocationFailure(err error) bool {
	return stderrors.Is(err, ErrAllocationFailure)
}

// IsContractViolation reports whether err is, or wraps, a contract violation.
func IsContractViolation(err error) bool {
	return stderrors.Is(err, ErrContractViolation)
}
