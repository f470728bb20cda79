package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Fanout dispatches each record to every handler that accepts its level.
type Fanout struct {
	handlers []slog.Handler
}

// NewFanout returns a handler writing to all of hs.
func NewFanout(hs ...slog.Handler) *Fanout {
	return &Fanout{handlers: hs}
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &Fanout{handlers: hs}
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &Fanout{handlers: hs}
}
