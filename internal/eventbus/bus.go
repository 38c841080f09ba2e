// Package eventbus provides the in-memory, asynchronous event bus that
// carries delivery outcomes from the dispatcher to subscribed collectors.
// Events flow through a buffered channel and are fanned out by a worker pool.
package eventbus

import (
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers    = 3
	defaultBufferSize = 100
)

// EventBus is the interface for publishing events and managing subscribers.
type EventBus interface {
	// Publish enqueues an event with the given type and payload. It never
	// blocks: if the buffer is full, the event is dropped and a warning is
	// logged. Delivery reporting must not slow down delivery itself.
	Publish(eventType string, payload map[string]string)

	// Subscribe registers a listener invoked for every published event
	// (broadcast). Subscribe must be called before the first Publish;
	// behavior is undefined if called after Close.
	Subscribe(listener Listener)

	// Close stops accepting new events and waits for all pending events to
	// be processed.
	Close()
}

// asyncBus is the default EventBus implementation.
type asyncBus struct {
	ch        chan Event
	listeners []Listener
	mu        sync.RWMutex
	wg        sync.WaitGroup
	logger    *slog.Logger
}

// New creates an in-memory EventBus with the given number of worker
// goroutines. If workers is <= 0, defaultWorkers is used.
func New(workers int, logger *slog.Logger) EventBus {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &asyncBus{
		ch:     make(chan Event, defaultBufferSize),
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for e := range b.ch {
				b.dispatch(e)
			}
		}()
	}
	return b
}

// dispatch fans an event out to every registered listener. Each listener is
// invoked with panic recovery so one bad collector cannot affect the others.
func (b *asyncBus) dispatch(e Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("eventbus listener panicked",
						slog.String("event_type", e.Type), slog.Any("panic", r))
				}
			}()
			l(e)
		}()
	}
}

// Publish enqueues an event. If the buffer is full the event is dropped.
func (b *asyncBus) Publish(eventType string, payload map[string]string) {
	e := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	select {
	case b.ch <- e:
	default:
		b.logger.Warn("eventbus buffer full, dropping event", slog.String("event_type", eventType))
	}
}

// Subscribe adds a listener to receive all future events.
func (b *asyncBus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Close drains and closes the event channel, then waits for the workers.
func (b *asyncBus) Close() {
	close(b.ch)
	b.wg.Wait()
}
