package ports

import (
	"context"

	"github.com/devportal/user-registry/internal/core/domain"
)

// EventSink accepts lifecycle events for asynchronous emission. Enqueue
// must return quickly and never fail the caller: a full queue is handled
// internally (logged and counted), never propagated.
type EventSink interface {
	Enqueue(event domain.LifecycleEvent)
}

// EventPublisher performs the actual transport publish for a single event.
// Implementations own their retry and dead-letter policy.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LifecycleEvent) error
}
