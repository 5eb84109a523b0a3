package logging

import (
	"context"
	"errors"
	"log/slog"
)

// fanout duplicates records to several handlers so that console and file
// outputs can carry different formats and levels.
type fanout struct {
	targets []slog.Handler
}

func newFanout(targets ...slog.Handler) slog.Handler {
	return &fanout{targets: targets}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, t := range f.targets {
		if t.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers the record to every enabled target. A failing target does
// not stop delivery to the others; all failures are reported joined.
func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, t := range f.targets {
		if !t.Enabled(ctx, r.Level) {
			continue
		}
		if err := t.Handle(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(f.targets))
	for i, t := range f.targets {
		targets[i] = t.WithAttrs(attrs)
	}
	return &fanout{targets: targets}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(f.targets))
	for i, t := range f.targets {
		targets[i] = t.WithGroup(name)
	}
	return &fanout{targets: targets}
}

// minLevel drops records below min before they reach next. It keeps
// errors.log at warn and above while the main file logs everything.
type minLevel struct {
	next slog.Handler
	min  slog.Level
}

func withMinLevel(next slog.Handler, min slog.Level) slog.Handler {
	return &minLevel{next: next, min: min}
}

func (h *minLevel) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.next.Enabled(ctx, level)
}

func (h *minLevel) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.min {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *minLevel) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &minLevel{next: h.next.WithAttrs(attrs), min: h.min}
}

func (h *minLevel) WithGroup(name string) slog.Handler {
	return &minLevel{next: h.next.WithGroup(name), min: h.min}
}
