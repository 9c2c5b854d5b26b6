package ports

import (
	"context"

	"github.com/orgplan/orgplan/internal/domain"
)

// EventPublisher releases committed domain events to the rest of the system.
type EventPublisher interface {
	// Publish delivers events in order. Delivery failures of individual
	// subscribers are reported through the returned error but never undo
	// the committed state change.
	Publish(ctx context.Context, events []domain.Event) error
}

// EventSubscriber receives published domain events.
type EventSubscriber interface {
	// Name identifies the subscriber in logs, metrics and health checks.
	Name() string

	// Handle processes one event.
	Handle(ctx context.Context, event domain.Event) error
}
