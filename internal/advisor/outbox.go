package advisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/retrofit-advisor/internal/domain"
	"github.com/couchcryptid/retrofit-advisor/internal/observability"
)

// Publisher writes an event to the event stream.
type Publisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

// Outbox decouples event producers from the event stream. Emit never
// blocks; Run delivers queued events with bounded retries.
type Outbox struct {
	publisher   Publisher
	queue       chan domain.Event
	logger      *slog.Logger
	metrics     *observability.Metrics
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
}

// NewOutbox creates an outbox holding up to capacity undelivered events.
func NewOutbox(p Publisher, capacity int, logger *slog.Logger, metrics *observability.Metrics) *Outbox {
	return &Outbox{
		publisher:   p,
		queue:       make(chan domain.Event, max(capacity, 1)),
		logger:      logger,
		metrics:     metrics,
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
		maxBackoff:  5 * time.Second,
	}
}

// Emit queues e for delivery, dropping it when the queue is full.
func (o *Outbox) Emit(e domain.Event) {
	select {
	case o.queue <- e:
	default:
		o.metrics.EventsDropped.Inc()
		o.logger.Warn("event outbox full, dropping event", "event_id", e.ID, "type", e.Type)
	}
}

// Run delivers queued events until the context is cancelled, then flushes
// whatever is already queued with a single attempt each.
func (o *Outbox) Run(ctx context.Context) error {
	o.logger.Info("event outbox started")
	for {
		select {
		case <-ctx.Done():
			o.drain()
			o.logger.Info("event outbox stopped", "reason", ctx.Err())
			return nil
		case e := <-o.queue:
			o.deliver(ctx, e)
		}
	}
}

func (o *Outbox) deliver(ctx context.Context, e domain.Event) {
	backoff := o.backoff
	for attempt := 1; ; attempt++ {
		err := o.publisher.Publish(ctx, e)
		if err == nil {
			o.metrics.EventsPublished.Inc()
			return
		}
		if attempt >= o.maxAttempts || ctx.Err() != nil {
			o.metrics.EventsDropped.Inc()
			o.logger.Error("publish event failed, dropping", "error", err, "event_id", e.ID, "type", e.Type, "attempts", attempt)
			return
		}
		o.logger.Warn("publish event failed, retrying", "error", err, "event_id", e.ID, "attempt", attempt)
		if !sleepWithContext(ctx, backoff) {
			o.metrics.EventsDropped.Inc()
			return
		}
		backoff = nextBackoff(backoff, o.maxBackoff)
	}
}

// drain makes one best-effort pass over events queued at shutdown.
func (o *Outbox) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case e := <-o.queue:
			if err := o.publisher.Publish(ctx, e); err != nil {
				o.metrics.EventsDropped.Inc()
				o.logger.Warn("publish event at shutdown failed", "error", err, "event_id", e.ID)
				continue
			}
			o.metrics.EventsPublished.Inc()
		default:
			return
		}
	}
}

const drainTimeout = 2 * time.Second

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// LogPublisher writes events to the log. It stands in for the event stream
// when Kafka is disabled.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, e domain.Event) error {
	p.Logger.Info("event", "event_id", e.ID, "type", e.Type, "assessment_id", e.AssessmentID, "reason", e.Reason)
	return nil
}
