package logs

import (
	"context"
	"log/slog"
)

// Handler adds the span and code unit carried by the context to every record.
type Handler struct {
	slog.Handler
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if v := ctx.Value(SpanKey); v != nil {
		record.Add("logs.span", v.(Span))
	}
	if v := ctx.Value(codeKey); v != nil {
		record.Add("code", v.(string))
	}
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		Handler: h.Handler.WithAttrs(attrs),
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		Handler: h.Handler.WithGroup(name),
	}
}

type codeKeyType struct{}

var codeKey codeKeyType

// WithCode records the name of the code unit running under ctx.
func WithCode(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, codeKey, name)
}
