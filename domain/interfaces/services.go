package interfaces

import (
	"context"

	"shogun/domain/events"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction settles
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes every buffered event; call after commit
	Flush(ctx context.Context) error

	// Discard drops every buffered event; call on rollback
	Discard()
}
