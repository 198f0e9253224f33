package logs

import (
	"io"
	"os"

	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
}

type spanKey struct{}

// SpanKey is the context key holding the current Span.
var SpanKey spanKey

// Span identifies one traced unit of work, such as one interpreter call.
type Span string

// Writer receives terminal log output.
type Writer io.Writer

func (Module) Writer() Writer {
	return os.Stderr
}
