package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrUnknownCode is returned when no handler is registered for a transaction code.
var ErrUnknownCode = errors.New("unknown transaction code")

// Event is one incoming transaction.
type Event struct {
	Code      uint32
	Name      string
	Data      []byte
	Timestamp time.Time
}

// HandlerFunc processes a transaction and returns the encoded reply.
type HandlerFunc func(ctx context.Context, e Event) ([]byte, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type route struct {
	name    string
	handler HandlerFunc
}

// Dispatcher routes transactions to registered handlers by code.
type Dispatcher struct {
	routes map[uint32]route
	logger Logger

	// OTEL metrics
	processed metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: make(map[uint32]route),
		logger: logger,
	}

	m := meter()

	var err error

	d.processed, err = m.Int64Counter(
		"dispatcher.transactions.processed",
		metric.WithDescription("Total transactions processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.transactions.failed",
		metric.WithDescription("Total transactions whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for code. name is used in logs and metrics.
func (d *Dispatcher) Register(code uint32, name string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.withMetrics(name, h)

	if cfg.logged {
		handler = d.withLogging(name, handler)
	}

	d.routes[code] = route{name: name, handler: handler}
}

// Dispatch routes a transaction to its registered handler.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) ([]byte, error) {
	r, ok := d.routes[e.Code]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCode, e.Code)
	}
	e.Name = r.name
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return r.handler(ctx, e)
}

// HasHandler returns true if a handler is registered for the code.
func (d *Dispatcher) HasHandler(code uint32) bool {
	_, ok := d.routes[code]
	return ok
}

func (d *Dispatcher) withMetrics(name string, h HandlerFunc) HandlerFunc {
	attrs := metric.WithAttributes(attribute.String("transaction", name))
	return func(ctx context.Context, e Event) ([]byte, error) {
		reply, err := h(ctx, e)
		if err != nil {
			d.failed.Add(ctx, 1, attrs)
		}
		d.processed.Add(ctx, 1, attrs)
		return reply, err
	}
}

func (d *Dispatcher) withLogging(name string, h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, e Event) ([]byte, error) {
		start := time.Now()
		d.logger.Debug("handling transaction", "transaction", name, "code", e.Code, "bytes", len(e.Data))

		reply, err := h(ctx, e)

		if err != nil {
			d.logger.Error("transaction failed", "transaction", name, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("transaction complete", "transaction", name, "duration", time.Since(start))
		}

		return reply, err
	}
}
