package framevm

import (
	"fmt"
	"strings"
)

type NameLookupError struct {
	Name string
}

func (e *NameLookupError) Error() string {
	return fmt.Sprintf("name '%s' is not defined", e.Name)
}

// UnsupportedOperationError reports an operation that is not defined for the given operand kinds,
// or an unknown operator or opcode.
type UnsupportedOperationError struct {
	Op     string
	Kinds  []Kind
	Detail string
}

func (e *UnsupportedOperationError) Error() string {
	var b strings.Builder
	b.WriteString("unsupported operation")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if len(e.Kinds) > 0 {
		b.WriteString(" for ")
		for i, k := range e.Kinds {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("'")
			b.WriteString(k.String())
			b.WriteString("'")
		}
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func unsupported(op string, operands ...Value) error {
	kinds := make([]Kind, 0, len(operands))
	for _, v := range operands {
		kinds = append(kinds, kindOf(v))
	}
	return &UnsupportedOperationError{
		Op:    op,
		Kinds: kinds,
	}
}

type ArityMismatchError struct {
	Want   int
	Got    int
	Detail string
}

func (e *ArityMismatchError) Error() string {
	if e.Detail != "" {
		return "arity mismatch: " + e.Detail
	}
	return fmt.Sprintf("arity mismatch: want %d, got %d", e.Want, e.Got)
}

type InvalidComparisonError struct {
	Op string
}

func (e *InvalidComparisonError) Error() string {
	return fmt.Sprintf("invalid comparison: %s", e.Op)
}

// AttributeLookupError is recovered by method-form attribute loads and fatal elsewhere.
type AttributeLookupError struct {
	Kind Kind
	Name string
}

func (e *AttributeLookupError) Error() string {
	return fmt.Sprintf("'%s' object has no attribute '%s'", e.Kind, e.Name)
}

type IndexRangeError struct {
	Kind  Kind
	Index int
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range", e.Kind, e.Index)
}

type KeyLookupError struct {
	Key Value
}

func (e *KeyLookupError) Error() string {
	return fmt.Sprintf("key not found: %s", Repr(e.Key))
}

type ZeroDivisionError struct {
	Op string
}

func (e *ZeroDivisionError) Error() string {
	return fmt.Sprintf("division by zero in %s", e.Op)
}

type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string {
	return e.Msg
}

type DepthExceededError struct {
	Max int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("maximum call depth %d exceeded", e.Max)
}

// ExecError records where in a code unit an error surfaced.
type ExecError struct {
	Code   string
	Op     Opcode
	Offset int
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d: %v", e.Code, e.Op, e.Offset, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
