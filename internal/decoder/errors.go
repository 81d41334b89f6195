package decoder

import (
	"errors"
	"fmt"

	"github.com/roach88/ratelens/internal/catalog"
)

var (
	// ErrUnknownOpcode is returned when the instruction type is not in the
	// catalog.
	ErrUnknownOpcode = catalog.ErrUnknownOpcode

	// ErrMalformedOperand is returned when a segment does not fit the
	// operand grammar.
	ErrMalformedOperand = errors.New("malformed operand")

	// ErrArityMismatch is returned when the segment count does not fit the
	// opcode's node shape.
	ErrArityMismatch = errors.New("arity mismatch")
)

// DecodeError reports a failed instruction with its step and raw text.
type DecodeError struct {
	Step    int
	InsType int
	Raw     string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("step %d (type %d) %q: %v", e.Step, e.InsType, e.Raw, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedOperand, fmt.Sprintf(format, args...))
}

func arity(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrArityMismatch, fmt.Sprintf(format, args...))
}
