package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Sink is one destination of a MultiHandler. A nil Level leaves the
// decision to the handler itself.
type Sink struct {
	Handler slog.Handler
	Level   slog.Leveler
}

func (s Sink) enabled(ctx context.Context, level slog.Level) bool {
	if s.Level != nil && level < s.Level.Level() {
		return false
	}
	return s.Handler.Enabled(ctx, level)
}

// MultiHandler sends each record to every sink whose level admits it, so
// the console and the log file can run at different verbosity.
type MultiHandler struct {
	sinks []Sink
}

// NewMultiHandler drops sinks without a handler.
func NewMultiHandler(sinks ...Sink) *MultiHandler {
	valid := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s.Handler != nil {
			valid = append(valid, s)
		}
	}
	return &MultiHandler{sinks: valid}
}

// Enabled reports whether any sink wants records at level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range m.sinks {
		if s.enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes r to each admitting sink. A failing sink does not stop the
// others; their errors are joined.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if !s.enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

// derive keeps each sink's level while wrapping its handler.
func (m *MultiHandler) derive(wrap func(slog.Handler) slog.Handler) *MultiHandler {
	sinks := make([]Sink, len(m.sinks))
	for i, s := range m.sinks {
		sinks[i] = Sink{Handler: wrap(s.Handler), Level: s.Level}
	}
	return &MultiHandler{sinks: sinks}
}
