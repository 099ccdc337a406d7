package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/devportal/user-registry/internal/api/metrics"
	"github.com/devportal/user-registry/internal/core/domain"
	"github.com/devportal/user-registry/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	publishTimeout = 10 * time.Second
)

// Dispatcher is the event emitter's in-process half: a bounded queue of
// lifecycle events drained by a fixed set of workers that hand each event to
// the transport publisher. Events are sharded by user id, preserving
// per-user ordering. Enqueue never blocks the lifecycle operation and a
// publish failure never reaches it.
type Dispatcher struct {
	workers   []chan domain.LifecycleEvent
	publisher ports.EventPublisher
	log       zerolog.Logger
	wg        sync.WaitGroup
	stopOnce  sync.Once
	stopped   atomic.Bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.LifecycleEvent, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.LifecycleEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers run until Stop closes
// their channels; cancelling ctx is the hard stop that abandons buffered
// events.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(len(d.workers))
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Stop closes the worker channels and waits until every buffered event has
// been published. Call it only after event producers have stopped, once the
// HTTP server no longer accepts requests.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		for _, ch := range d.workers {
			close(ch)
		}
	})
	d.wg.Wait()
}

// Enqueue hands an event to the worker responsible for its user. The call is
// non-blocking: when the worker's buffer is full the event is dropped with a
// log line and a counter bump, never an error to the caller.
func (d *Dispatcher) Enqueue(event domain.LifecycleEvent) {
	if d.stopped.Load() {
		metrics.EventsDroppedTotal.Inc()
		d.log.Error().
			Str("event_id", event.EventID).
			Str("kind", string(event.Kind)).
			Msg("dispatcher stopped, event dropped")
		return
	}
	idx := d.shardIndex(event.User.ID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsEnqueuedTotal.Inc()
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.EventsDroppedTotal.Inc()
		d.log.Error().
			Str("event_id", event.EventID).
			Str("kind", string(event.Kind)).
			Str("user_id", event.User.ID).
			Msg("event queue full, event dropped")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.LifecycleEvent) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.publish(event, id)
		}
	}
}

// publish performs a single attempt against the transport; broker-side
// retry and dead-lettering take over from there.
func (d *Dispatcher) publish(event domain.LifecycleEvent, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	start := time.Now()
	if err := d.publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublishFailuresTotal.WithLabelValues(string(event.Kind)).Inc()
		d.log.Error().Err(err).
			Str("event_id", event.EventID).
			Str("kind", string(event.Kind)).
			Int("worker_id", workerID).
			Msg("event publish failed")
		return
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Kind)).Inc()
	metrics.EventPublishDuration.WithLabelValues(string(event.Kind)).Observe(time.Since(start).Seconds())
}
