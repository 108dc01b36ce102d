// Package eventbus fans recorded editor events out to in-process consumers:
// the event log, the stats counters and, when enabled, the artifact export.
// The recorder publishes after the history write, so a dropped event is
// still visible in a session's history.
package eventbus

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/matthewbaird/dtobuddy/internal/event"
)

// Handler consumes one event. Consumers run one at a time on the bus
// goroutine.
type Handler interface {
	HandleEvent(ctx context.Context, evt event.DomainEvent) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt event.DomainEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	return f(ctx, evt)
}

type consumer struct {
	name    string
	handler Handler
}

// Bus queues events in a bounded buffer and hands each one to every
// consumer, in subscription order, from a single goroutine. Publishing never
// blocks an editing request: when the queue is full or the bus is stopped
// the event is counted as dropped.
type Bus struct {
	mu        sync.RWMutex
	consumers []consumer
	stopped   bool

	queue   chan event.DomainEvent
	done    chan struct{}
	dropped atomic.Int64
}

// New creates a Bus queueing up to size events; size < 1 means 256.
func New(size int) *Bus {
	if size < 1 {
		size = 256
	}
	return &Bus{
		queue: make(chan event.DomainEvent, size),
		done:  make(chan struct{}),
	}
}

// Subscribe adds a consumer. Call it before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	b.consumers = append(b.consumers, consumer{name: name, handler: h})
	b.mu.Unlock()
}

// Publish queues evt for the consumers.
func (b *Bus) Publish(_ context.Context, evt event.DomainEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		b.drop(evt, "bus stopped")
		return
	}
	select {
	case b.queue <- evt:
	default:
		b.drop(evt, "queue full")
	}
}

func (b *Bus) drop(evt event.DomainEvent, reason string) {
	b.dropped.Add(1)
	log.Printf("eventbus: %s, dropping %s (%s)", reason, evt.EventType, evt.ID)
}

// Dropped reports how many events were never delivered.
func (b *Bus) Dropped() int {
	return int(b.dropped.Load())
}

// Start runs the delivery goroutine until Stop is called or ctx ends.
// Events already queued are delivered either way.
func (b *Bus) Start(ctx context.Context) {
	go b.run(ctx)
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case evt, ok := <-b.queue:
			if !ok {
				return
			}
			b.deliver(ctx, evt)
		case <-ctx.Done():
			b.flush(ctx)
			return
		}
	}
}

// flush delivers whatever is queued without waiting for more.
func (b *Bus) flush(ctx context.Context) {
	for {
		select {
		case evt, ok := <-b.queue:
			if !ok {
				return
			}
			b.deliver(ctx, evt)
		default:
			return
		}
	}
}

// Stop refuses further events, then waits until the queue is delivered.
// Start must have been called.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.stopped {
		b.stopped = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) deliver(ctx context.Context, evt event.DomainEvent) {
	b.mu.RLock()
	consumers := b.consumers
	b.mu.RUnlock()

	for _, c := range consumers {
		b.handle(ctx, c, evt)
	}
}

// handle runs one consumer. A failing or panicking consumer is logged and
// does not stop delivery to the rest.
func (b *Bus) handle(ctx context.Context, c consumer, evt event.DomainEvent) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("eventbus: %s panicked on %s: %v", c.name, evt.EventType, p)
		}
	}()
	if err := c.handler.HandleEvent(ctx, evt); err != nil {
		log.Printf("eventbus: %s failed on %s: %v", c.name, evt.EventType, err)
	}
}
