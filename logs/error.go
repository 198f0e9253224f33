package logs

import (
	"context"
	"fmt"
)

// SpanError tags an error with the span it left.
type SpanError struct {
	Span Span
	Err  error
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("%v (span %s)", e.Err, e.Span)
}

func (e *SpanError) Unwrap() error {
	return e.Err
}

// WrapSpan tags err with the span of ctx. Errors already tagged keep their innermost span.
func WrapSpan(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	v := ctx.Value(SpanKey)
	if v == nil {
		return err
	}
	if _, ok := err.(*SpanError); ok {
		return err
	}
	return &SpanError{
		Span: v.(Span),
		Err:  err,
	}
}
