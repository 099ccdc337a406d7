// Package metrics defines and registers all custom Prometheus metrics for
// the user registry. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry at
// package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "user_registry"

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// LifecycleOperationsTotal counts lifecycle operations by outcome.
// Labels:
//   - op: "create", "update", "disable", "enable", "delete"
//   - outcome: "success", "validation_error", "duplicate", "not_found", "error"
var LifecycleOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_operations_total",
		Help:      "Total number of user lifecycle operations, by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// ── Event emission metrics ────────────────────────────────────────────────────

// EventsEnqueuedTotal counts lifecycle events handed to the dispatcher.
var EventsEnqueuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_enqueued_total",
		Help:      "Total number of lifecycle events accepted by the dispatcher.",
	},
)

// EventsDroppedTotal counts events discarded because the dispatcher queue
// was full. A non-zero value means the bounded handoff overflowed.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of lifecycle events dropped due to a full dispatch queue.",
	},
)

// EventsPublishedTotal counts events successfully handed to the broker.
// Label:
//   - kind: the event's routing classifier (e.g. "user.created")
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of lifecycle events published to the broker.",
	},
	[]string{"kind"},
)

// EventsPublishFailuresTotal counts publish attempts that failed. Failures
// are logged and never propagated to the originating lifecycle operation.
var EventsPublishFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_publish_failures_total",
		Help:      "Total number of failed lifecycle event publish attempts.",
	},
	[]string{"kind"},
)

// EventsQueueDepth tracks the number of events waiting in each worker channel.
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventPublishDuration measures the broker publish round trip per event kind.
var EventPublishDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_publish_duration_seconds",
		Help:      "Duration of a single event publish to the broker.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)
