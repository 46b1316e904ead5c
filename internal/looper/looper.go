// Package looper runs map state mutations on a single owner goroutine.
package looper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/mapshim/internal/looper"

// ErrQuit is returned when work is submitted to a looper that has stopped.
var ErrQuit = errors.New("looper has quit")

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Looper executes posted functions one at a time, in order, on the goroutine running Run.
type Looper struct {
	tasks  chan func()
	quit   chan struct{}
	once   sync.Once
	logger Logger

	// owner-only, see Defer
	deferred []func()

	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	panics    metric.Int64Counter
}

// New creates a looper with room for queueSize pending tasks.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, queueSize int) (*Looper, error) {
	if queueSize <= 0 {
		queueSize = 1
	}
	l := &Looper{
		tasks:  make(chan func(), queueSize),
		quit:   make(chan struct{}),
		logger: logger,
	}

	m := otel.Meter(instrumentationName)

	var err error

	l.queueSize, err = m.Int64ObservableGauge(
		"looper.queue.size",
		metric.WithDescription("Current number of tasks waiting for the owner goroutine"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(l.queueSize, int64(len(l.tasks)))
			return nil
		},
		l.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	l.processed, err = m.Int64Counter(
		"looper.tasks.processed",
		metric.WithDescription("Total tasks run on the owner goroutine"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	l.panics, err = m.Int64Counter(
		"looper.tasks.panicked",
		metric.WithDescription("Total tasks that panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating panic counter: %w", err)
	}

	return l, nil
}

// Run executes tasks until ctx is done or Quit is called. Tasks still queued are dropped.
func (l *Looper) Run(ctx context.Context) {
	l.logger.Debug("looper started")
	defer l.logger.Debug("looper stopped")
	waited := 0
	for {
		if len(l.deferred) == 0 {
			select {
			case <-ctx.Done():
				l.Quit()
				return
			case <-l.quit:
				return
			case fn := <-l.tasks:
				l.run(fn)
			}
			continue
		}
		// Queued tasks go first so their updates share the deferred work,
		// but deferred work waits at most one full queue.
		if waited < cap(l.tasks) {
			select {
			case <-ctx.Done():
				l.Quit()
				return
			case <-l.quit:
				return
			case fn := <-l.tasks:
				waited++
				l.run(fn)
				continue
			default:
			}
		}
		waited = 0
		l.runDeferred()
	}
}

func (l *Looper) runDeferred() {
	batch := l.deferred
	l.deferred = nil
	for _, fn := range batch {
		l.run(fn)
	}
}

func (l *Looper) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(context.Background(), 1)
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	fn()
	l.processed.Add(context.Background(), 1)
}

// Post queues fn. It blocks while the queue is full and returns false once the looper has quit.
// Must not be called from the owner goroutine; use Defer there.
func (l *Looper) Post(fn func()) bool {
	return l.enqueue(context.Background(), fn) == nil
}

// Defer queues fn without blocking. It must only be called from the owner
// goroutine, e.g. by a task that schedules follow-up work on its own queue.
// Returns false once the looper has quit.
func (l *Looper) Defer(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	l.deferred = append(l.deferred, fn)
	return true
}

func (l *Looper) enqueue(ctx context.Context, fn func()) error {
	select {
	case <-l.quit:
		return ErrQuit
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrQuit
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync runs fn on the owner goroutine and waits for it to return.
// ctx bounds both the wait for queue space and the wait for fn.
// Must not be called from the owner goroutine itself.
func (l *Looper) Sync(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.enqueue(ctx, func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.quit:
		return ErrQuit
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Quit stops the looper. It is safe to call more than once.
func (l *Looper) Quit() {
	l.once.Do(func() { close(l.quit) })
}
