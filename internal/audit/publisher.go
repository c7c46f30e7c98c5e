// Package audit captures structured, append-only records of interaction
// outcomes. It is an observability surface: emission failures are reported to
// the caller but never alter flow semantics.
package audit

import (
	"context"
	"sync"
	"time"

	"parley/pkg/requestcontext"
)

// Publisher captures audit events. It is append-only and uses the storage
// layer for persistence so tests can swap sinks easily. With an async buffer
// configured, Emit enqueues and a background goroutine drains to the store;
// Close flushes the queue.
type Publisher struct {
	store Store

	inbox chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes emission asynchronous with the given queue size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Event, size)
		}
	}
}

// NewPublisher constructs a Publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event, stamping the timestamp and request-scoped metadata
// from the context when absent.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}

	if p.inbox != nil {
		p.inbox <- event
		return nil
	}
	return p.store.Append(ctx, event)
}

// ListBySubject returns recorded events for one subject.
func (p *Publisher) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// Close stops the async drainer after flushing queued events. Safe to call
// on a synchronous publisher and safe to call twice.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Persistence errors are swallowed here; the audit trail is advisory
		// on the async path.
		_ = p.store.Append(context.Background(), event)
	}
}
