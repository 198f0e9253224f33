package logs

import (
	"context"
	"crypto/rand"
)

// NewSpan derives a context carrying a fresh span. An empty parent means the span in ctx.
type NewSpan func(ctx context.Context, parent Span) (context.Context, Span)

const spanLength = 12

func (Module) NewSpan(
	logger Logger,
) NewSpan {
	return func(ctx context.Context, parent Span) (context.Context, Span) {

		var creatorSpan Span
		if v, ok := ctx.Value(SpanKey).(Span); ok {
			creatorSpan = v
		}
		if parent == "" {
			parent = creatorSpan
		}

		span := Span(rand.Text()[:spanLength])
		ctx = context.WithValue(ctx, SpanKey, span)

		// one per traced call, so keep it below the default level
		var args []any
		if creatorSpan != "" && creatorSpan != parent {
			args = append(args, "creator", creatorSpan)
		}
		if parent != "" {
			args = append(args, "parent", parent)
		}
		logger.DebugContext(ctx, "new span", args...)

		return ctx, span
	}
}
