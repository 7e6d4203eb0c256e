package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Counter wraps a handler and counts the warnings and errors it sees.
type Counter struct {
	inner slog.Handler
	warn  *atomic.Int64
	err   *atomic.Int64
}

// NewCounter wraps h.
func NewCounter(h slog.Handler) *Counter {
	return &Counter{inner: h, warn: new(atomic.Int64), err: new(atomic.Int64)}
}

// Counts returns the number of warnings and errors logged so far.
func (c *Counter) Counts() (warn, err int64) {
	return c.warn.Load(), c.err.Load()
}

func (c *Counter) Enabled(ctx context.Context, level slog.Level) bool {
	return c.inner.Enabled(ctx, level)
}

func (c *Counter) Handle(ctx context.Context, r slog.Record) error {
	switch {
	case r.Level >= slog.LevelError:
		c.err.Add(1)
	case r.Level >= slog.LevelWarn:
		c.warn.Add(1)
	}
	return c.inner.Handle(ctx, r)
}

func (c *Counter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Counter{inner: c.inner.WithAttrs(attrs), warn: c.warn, err: c.err}
}

func (c *Counter) WithGroup(name string) slog.Handler {
	return &Counter{inner: c.inner.WithGroup(name), warn: c.warn, err: c.err}
}
