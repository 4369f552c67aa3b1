package eval

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/brutalist/internal/ir"
	"github.com/roach88/brutalist/internal/tape"
)

// RuntimeError is a fatal condition detected while executing a program.
// Every runtime error ends the run; none are retried.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// IP is the index of the instruction that failed.
	IP int

	// Op is the instruction that failed.
	Op ir.Op

	// Pointer is the tape pointer when the instruction started.
	Pointer int

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMalformedLoop indicates an Open or Close with no partner.
	// The parser rules this out for source programs.
	ErrCodeMalformedLoop RuntimeErrorCode = "MALFORMED_LOOP"

	// ErrCodeOutOfBounds indicates the pointer left the tape.
	ErrCodeOutOfBounds RuntimeErrorCode = "OUT_OF_BOUNDS"

	// ErrCodeIOFailure indicates a read or write fault other than end of input.
	ErrCodeIOFailure RuntimeErrorCode = "IO_FAILURE"

	// ErrCodeStepsExceeded indicates the configured step quota ran out.
	ErrCodeStepsExceeded RuntimeErrorCode = "STEPS_EXCEEDED"

	// ErrCodeCancelled indicates the run's context was cancelled.
	ErrCodeCancelled RuntimeErrorCode = "CANCELLED"
)

// Codes lists every runtime error code.
var Codes = []RuntimeErrorCode{ErrCodeMalformedLoop, ErrCodeOutOfBounds, ErrCodeIOFailure, ErrCodeStepsExceeded, ErrCodeCancelled}

// IsCode reports whether s names a runtime error code.
func IsCode(s string) bool {
	return slices.Contains(Codes, RuntimeErrorCode(s))
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (ip=%d, op=%s, ptr=%d)", e.Code, e.Message, e.IP, e.Op, e.Pointer)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CodeOf returns the runtime error code carried by err, or "" if err is
// not a RuntimeError.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsMalformedLoop reports whether err is a malformed-loop error.
func IsMalformedLoop(err error) bool {
	return CodeOf(err) == ErrCodeMalformedLoop
}

// IsOutOfBounds reports whether err is an out-of-bounds tape access.
// Matches both RuntimeError and a bare *tape.OutOfBoundsError.
func IsOutOfBounds(err error) bool {
	if CodeOf(err) == ErrCodeOutOfBounds {
		return true
	}
	var oob *tape.OutOfBoundsError
	return errors.As(err, &oob)
}

// IsIOFailure reports whether err is an I/O fault.
func IsIOFailure(err error) bool {
	return CodeOf(err) == ErrCodeIOFailure
}

// IsStepsExceeded reports whether err is a quota error.
func IsStepsExceeded(err error) bool {
	if CodeOf(err) == ErrCodeStepsExceeded {
		return true
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// IsCancelled reports whether err is a cancellation, either a RuntimeError
// or a bare context error.
func IsCancelled(err error) bool {
	if CodeOf(err) == ErrCodeCancelled {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
