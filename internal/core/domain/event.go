package domain

import "time"

// EventKind is the hierarchical routing classifier of a lifecycle event.
// The transport uses it to fan out to subscribers (e.g. binding "user.*").
type EventKind string

const (
	EventUserCreated  EventKind = "user.created"
	EventUserUpdated  EventKind = "user.updated"
	EventUserDisabled EventKind = "user.disabled"
	EventUserEnabled  EventKind = "user.enabled"
	EventUserDeleted  EventKind = "user.deleted"
)

// LifecycleEvent is an immutable fact describing a completed lifecycle
// transition. It carries a copy of the resulting user's public fields and is
// never mutated after creation.
type LifecycleEvent struct {
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Kind          EventKind `json:"kind"`
	OccurredAt    time.Time `json:"occurred_at"`
	User          User      `json:"user"`
}
