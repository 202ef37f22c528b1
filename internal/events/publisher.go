package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"folio/pkg/requestcontext"
)

// Store is the event sink behind the Publisher. The memory store keeps
// events for tests and single-node runs; the postgres store writes a
// transactional outbox drained to Kafka by the Worker.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher assigns identity and timestamps to events and hands them to the
// store, either synchronously or through a buffered channel drained by a
// background goroutine.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox  chan Event
	wg     sync.WaitGroup
	closed chan struct{}
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous publishing with the given channel
// capacity. When the buffer is full events are dropped with a log line
// rather than blocking the operation that emitted them.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

// WithLogger sets the logger used for drop and append failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher builds a Publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records a domain event. The event ID, timestamp and request ID are
// filled in when absent so call sites stay small.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Warn("event buffer full, dropping event",
			"type", event.Type, "event_id", event.ID)
		return nil
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.Error("append event failed",
				"type", event.Type, "event_id", event.ID, "error", err)
		}
		cancel()
	}
}

// Close drains any buffered events and stops the background goroutine.
func (p *Publisher) Close() {
	select {
	case <-p.closed:
		return
	default:
		close(p.closed)
	}
	if p.inbox != nil {
		close(p.inbox)
		p.wg.Wait()
	}
}
