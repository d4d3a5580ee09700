package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

const correlationKey = "correlation_id"

type attrsKey struct{}

// NewCorrelationID returns an identifier for one webhook delivery.
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithAttrs returns a context whose log records carry attrs in addition to
// any attributes already attached to ctx.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev := contextAttrs(ctx)
	merged := make([]slog.Attr, 0, len(prev)+len(attrs))
	merged = append(merged, prev...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return WithAttrs(ctx, slog.String(correlationKey, id))
}

// CorrelationID reports the delivery ID attached to ctx, if any.
func CorrelationID(ctx context.Context) (string, bool) {
	attrs := contextAttrs(ctx)
	for i := len(attrs) - 1; i >= 0; i-- {
		if attrs[i].Key == correlationKey {
			id := attrs[i].Value.String()
			return id, id != ""
		}
	}
	return "", false
}

func contextAttrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return attrs
}

// contextHandler copies the attributes attached with WithAttrs onto every
// record logged through a *Context method.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
