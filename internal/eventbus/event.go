package eventbus

import "time"

// Delivery lifecycle event types published by the dispatcher. External
// analytics and reporting collaborators subscribe to these to aggregate
// delivery outcomes without coupling to the delivery pipeline.
const (
	EventDeliverySucceeded = "delivery.attempt.succeeded"
	EventDeliveryFailed    = "delivery.attempt.failed"
	EventDeliveryExhausted = "delivery.exhausted"
)

// Event is a single application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)
