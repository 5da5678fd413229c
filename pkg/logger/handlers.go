package logger

import (
	"context"
	"log/slog"
)

// fanout forwards records to every handler that accepts their level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	for _, h := range f {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// exactLevel accepts only records logged at one level.
type exactLevel struct {
	slog.Handler
	level slog.Level
}

func (h exactLevel) Enabled(_ context.Context, level slog.Level) bool {
	return level == h.level
}

func (h exactLevel) WithAttrs(attrs []slog.Attr) slog.Handler {
	return exactLevel{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h exactLevel) WithGroup(name string) slog.Handler {
	return exactLevel{Handler: h.Handler.WithGroup(name), level: h.level}
}
