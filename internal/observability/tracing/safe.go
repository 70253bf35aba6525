package tracing

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

var blockedAttributeKeys = map[attribute.Key]struct{}{
	"authorization": {},
	"email":         {},
	"token":         {},
	"step_data":     {},
	"metadata":      {},
}

// ExtractContext reads upstream trace headers into ctx.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// SafeAttributes drops attributes that may carry personal data or opaque payloads.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedAttributeKeys[attribute.Key(strings.ToLower(string(attr.Key)))]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError reduces err to its outermost message so SQL text never reaches span events.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if idx := strings.Index(msg, ":"); idx > 0 {
		msg = msg[:idx]
	}
	return errors.New(strings.TrimSpace(msg))
}
