package domain

import "context"

// Action represents a single executable operation with rollback capability.
// The application layer stages one Action per aggregate write and executes
// them together when the unit of work commits.
type Action interface {
	// Execute performs the action. The context carries cancellation and
	// deadline signals that the implementation should respect.
	Execute(ctx context.Context) error

	// Rollback reverses the effect of a previously successful Execute call.
	// Rollback is only called if Execute returned nil.
	Rollback(ctx context.Context) error

	// Description returns a human-readable description of the action for
	// logging purposes (e.g., "save portfolio 0b6c...").
	Description() string
}

// WriteStager is the domain's view of the application-layer unit of work.
type WriteStager interface {
	// Stage updates the in-memory aggregate cache for the given key and
	// queues the associated write for execution during Commit.
	Stage(key string, aggregate any, action Action) error

	// Record appends domain events that are released to publishers only
	// after a successful Commit.
	Record(events ...Event)
}
