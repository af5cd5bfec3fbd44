// Package eventbus delivers domain events to a sink from a background goroutine,
// so that a slow or failing consumer never delays the operation that raised them.
package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"distribution/internal/core/ports"
)

// ErrClosed is returned by Close on a bus that was already closed.
var ErrClosed = errors.New("event bus is closed")

// Sink is the final destination of an event.
type Sink interface {
	Send(ctx context.Context, event ports.DomainEvent) error
}

type Option func(*Bus)

// WithBuffer sets the queue length. Events published to a full queue are dropped.
func WithBuffer(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.queue = make(chan ports.DomainEvent, size)
		}
	}
}

// WithSendTimeout bounds a single Sink.Send call.
func WithSendTimeout(timeout time.Duration) Option {
	return func(b *Bus) {
		b.sendTimeout = timeout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// Bus implements ports.EventPublisher with at-most-once delivery.
type Bus struct {
	sink        Sink
	queue       chan ports.DomainEvent
	sendTimeout time.Duration
	logger      *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New starts the delivery goroutine. Call Close to drain and stop it.
func New(sink Sink, opts ...Option) *Bus {
	b := &Bus{
		sink:        sink,
		queue:       make(chan ports.DomainEvent, 256),
		sendTimeout: 10 * time.Second,
		logger:      slog.Default(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "eventbus")

	go b.run()
	return b
}

// Publish enqueues events without blocking.
func (b *Bus) Publish(ctx context.Context, events ...ports.DomainEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, event := range events {
		if b.closed {
			b.logger.WarnContext(ctx, "event dropped, bus closed", "type", event.Type, "aggregate_id", event.AggregateID)
			continue
		}
		select {
		case b.queue <- event:
		default:
			b.logger.WarnContext(ctx, "event dropped, queue full", "type", event.Type, "aggregate_id", event.AggregateID)
		}
	}
}

// Close stops accepting events and waits until the queued ones are sent or ctx expires.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) run() {
	defer close(b.done)
	for event := range b.queue {
		b.send(event)
	}
}

func (b *Bus) send(event ports.DomainEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), b.sendTimeout)
	defer cancel()

	if err := b.sink.Send(ctx, event); err != nil {
		b.logger.ErrorContext(ctx, "failed to deliver event",
			"type", event.Type,
			"aggregate_id", event.AggregateID,
			"error", err,
		)
	}
}
