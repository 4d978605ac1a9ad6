package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns attributes evaluated at log time, such as the
// departure and arrival of the plan currently being edited.
type ContextProvider func() []slog.Attr

// fanout delivers every record to each sink enabled for its level.
type fanout []slog.Handler

func newFanout(sinks ...slog.Handler) fanout {
	out := make(fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, s := range f {
		if s.Enabled(ctx, r.Level) {
			err = errors.Join(err, s.Handle(ctx, r.Clone()))
		}
	}
	return err
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, s := range f {
		out[i] = fn(s)
	}
	return out
}

// planContext appends the provider's attributes to every record. Empty
// string attributes are skipped so an unset departure leaves no trace.
type planContext struct {
	next     slog.Handler
	provider ContextProvider
}

func (p planContext) Enabled(ctx context.Context, level slog.Level) bool {
	return p.next.Enabled(ctx, level)
}

func (p planContext) Handle(ctx context.Context, r slog.Record) error {
	for _, a := range p.provider() {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			continue
		}
		r.AddAttrs(a)
	}
	return p.next.Handle(ctx, r)
}

func (p planContext) WithAttrs(attrs []slog.Attr) slog.Handler {
	return planContext{next: p.next.WithAttrs(attrs), provider: p.provider}
}

func (p planContext) WithGroup(name string) slog.Handler {
	if name == "" {
		return p
	}
	return planContext{next: p.next.WithGroup(name), provider: p.provider}
}
