package observability

import (
	"context"
	"log/slog"
)

const redacted = "[redacted]"

// SlogObserver emits events to a slog.Logger. Event levels are mapped via
// SlogLevel, the event type becomes the log message, and Data keys are
// flattened as top-level slog attributes. Sensitive keys are replaced with a
// placeholder.
type SlogObserver struct {
	logger    *slog.Logger
	sensitive map[string]bool
}

// SlogOption configures a SlogObserver.
type SlogOption func(*SlogObserver)

// WithSensitiveKeys replaces the set of keys redacted from log output.
// Passing no keys disables redaction.
func WithSensitiveKeys(keys ...string) SlogOption {
	return func(o *SlogObserver) {
		o.sensitive = make(map[string]bool, len(keys))
		for _, k := range keys {
			o.sensitive[k] = true
		}
	}
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
// Clinical keys from SensitiveKeys are redacted by default.
func NewSlogObserver(logger *slog.Logger, opts ...SlogOption) *SlogObserver {
	o := &SlogObserver{logger: logger}
	WithSensitiveKeys(SensitiveKeys()...)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data)+1)
	attrs = append(attrs, slog.String("source", event.Source))
	for k, v := range event.Data {
		if o.sensitive[k] {
			attrs = append(attrs, slog.String(k, redacted))
			continue
		}
		attrs = append(attrs, slog.Any(k, v))
	}

	o.logger.LogAttrs(ctx, event.Level.SlogLevel(), string(event.Type), attrs...)
}
