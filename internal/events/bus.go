package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Handler consumes one event. Handlers run outside the originating request
// and get a fresh context; failures stay inside the handler.
type Handler func(ctx context.Context, evt Event)

const handlerTimeout = 30 * time.Second

// Bus is the in-process after-commit task queue: writers enqueue committed
// events, a worker pool drains them. Delivery is best effort — a full queue
// drops the event rather than blocking the request path.
type Bus struct {
	queue    chan Event
	handlers []Handler

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewBus creates a bus with the given queue capacity.
func NewBus(buffer int) *Bus {
	return &Bus{queue: make(chan Event, buffer)}
}

// Subscribe registers a handler. Must be called before Start.
func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Start launches the worker pool.
func (b *Bus) Start(workers int) {
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for evt := range b.queue {
		for _, h := range b.handlers {
			b.dispatch(h, evt)
		}
	}
}

// dispatch isolates one handler invocation: its own context, its own panic
// boundary. A failing consumer must never re-trigger the originating write or
// affect its siblings.
func (b *Bus) dispatch(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("event", evt.Kind()).Errorf("event handler panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	h(ctx, evt)
}

// Publish enqueues a committed event. Never blocks; the event is dropped with
// a log line when the queue is saturated.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		log.WithField("event", evt.Kind()).Warn("event published after bus close, dropping")
		return
	}
	select {
	case b.queue <- evt:
	default:
		log.WithField("event", evt.Kind()).Warn("event queue full, dropping event")
	}
}

// Close stops accepting events and waits for the workers to drain the queue.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()
	b.wg.Wait()
}
