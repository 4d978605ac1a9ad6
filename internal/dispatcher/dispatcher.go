package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/skyroute/flightplanner/internal/dispatcher"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrQueueFull      = errors.New("queue full")
	ErrClosed         = errors.New("dispatcher closed")
)

// Event is a planner command, e.g. ":PLAN:SPEED:" with args ["250"].
type Event struct {
	Command   string
	Args      []string
	Source    string // http, ws, cli
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to registered handlers. Register is expected at
// startup; Dispatch is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	queues   map[string]*queue
	closed   bool
	workers  sync.WaitGroup
	logger   Logger
	metrics  instruments
}

type instruments struct {
	depth     metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter
	latency   metric.Float64Histogram
}

func newInstruments(m metric.Meter) (instruments, error) {
	var ins instruments
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&ins.processed, "dispatcher.events.processed", "Total commands processed"},
		{&ins.failed, "dispatcher.events.failed", "Total commands whose handler returned an error"},
		{&ins.dropped, "dispatcher.events.dropped", "Total commands dropped due to full queue"},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return ins, fmt.Errorf("creating %s: %w", c.name, err)
		}
	}

	ins.latency, err = m.Float64Histogram("dispatcher.event.duration",
		metric.WithDescription("Handler execution time"), metric.WithUnit("ms"))
	if err != nil {
		return ins, fmt.Errorf("creating duration histogram: %w", err)
	}

	ins.depth, err = m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Current number of commands waiting in a buffered queue"))
	if err != nil {
		return ins, fmt.Errorf("creating queue size gauge: %w", err)
	}
	return ins, nil
}

// New creates a Dispatcher reporting to the global OTel meter, which is a
// no-op until a provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	ins, err := newInstruments(otel.Meter(meterName))
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		queues:   make(map[string]*queue),
		logger:   logger,
		metrics:  ins,
	}

	_, err = otel.Meter(meterName).RegisterCallback(func(_ context.Context, o metric.Observer) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for cmd, q := range d.queues {
			o.ObserveInt64(ins.depth, int64(len(q.events)), metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}, ins.depth)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}
	return d, nil
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.measured(command, h)
	if cfg.bufferSize > 0 {
		handler = d.enqueueing(command, cfg.bufferSize, cfg.blocking, handler)
	}
	if cfg.logged {
		handler = d.traced(command, handler)
	}

	d.mu.Lock()
	d.handlers[command] = handler
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	d.mu.RLock()
	h, ok := d.handlers[e.Command]
	closed := d.closed
	d.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[command]
	return ok
}

// Commands returns the registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Close stops accepting events and waits until buffered queues drain or ctx
// is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, q := range d.queues {
		close(q.events)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining dispatcher queues: %w", ctx.Err())
	}
}

func (d *Dispatcher) measured(command string, h HandlerFunc) HandlerFunc {
	attrs := metric.WithAttributes(attribute.String("command", command))
	return func(e Event) (any, error) {
		start := time.Now()
		result, err := h(e)
		elapsed := float64(time.Since(start).Microseconds()) / 1000

		ctx := context.Background()
		d.metrics.latency.Record(ctx, elapsed, attrs)
		d.metrics.processed.Add(ctx, 1, attrs)
		if err != nil {
			d.metrics.failed.Add(ctx, 1, attrs)
		}
		return result, err
	}
}

// queue feeds one worker goroutine per buffered command.
type queue struct {
	events   chan Event
	blocking bool
}

// offer reports whether e was accepted. Close takes the write lock before
// closing events, so holding the read lock here never sends on a closed
// channel.
func (d *Dispatcher) offer(q *queue, e Event) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false, ErrClosed
	}
	if q.blocking {
		q.events <- e
		return true, nil
	}
	select {
	case q.events <- e:
		return true, nil
	default:
		return false, nil
	}
}

func (d *Dispatcher) enqueueing(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	q := &queue{events: make(chan Event, size), blocking: blocking}

	d.mu.Lock()
	d.queues[command] = q
	d.mu.Unlock()

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range q.events {
			if _, err := h(e); err != nil {
				d.logger.Error("queued event failed", "command", command, "error", err)
			}
		}
	}()

	dropAttrs := metric.WithAttributes(attribute.String("command", command))
	return func(e Event) (any, error) {
		accepted, err := d.offer(q, e)
		switch {
		case err != nil:
			return nil, err
		case !accepted:
			d.metrics.dropped.Add(context.Background(), 1, dropAttrs)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
		return "queued", nil
	}
}

func (d *Dispatcher) traced(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args), "source", e.Source)

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}

		return result, err
	}
}
