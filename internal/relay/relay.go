// Package relay drains the review-event outbox to the configured sinks.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/flameborn/validator/internal/events"
	"github.com/flameborn/validator/internal/models"
	"github.com/flameborn/validator/internal/store"
)

// Relay publishes pending review events and archives them. Delivery is
// at-least-once: an event whose archive step fails is published again on the
// next run, so consumers dedupe on the event-id header.
type Relay struct {
	outbox    store.EventOutbox
	publisher events.Publisher
	archiver  events.Archiver
	batchSize int
	logger    *slog.Logger
	now       func() time.Time

	sched gocron.Scheduler
}

// New builds a relay. A nil publisher or archiver disables that sink.
func New(outbox store.EventOutbox, publisher events.Publisher, archiver events.Archiver, batchSize int, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		archiver:  archiver,
		batchSize: batchSize,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce delivers up to one batch and returns the number of events
// delivered. Per-event failures are recorded on the outbox row, not returned.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.outbox.ListPendingEvents(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending events: %w", err)
	}

	delivered := 0
	for _, ev := range pending {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		key, err := r.deliver(ctx, ev)
		if err != nil {
			r.logger.Warn("review event delivery failed",
				"event_id", ev.ID, "submission_id", ev.SubmissionID, "attempt", ev.Attempts+1, "error", err)
			if markErr := r.outbox.MarkEventFailed(ctx, ev.ID, err.Error()); markErr != nil {
				return delivered, fmt.Errorf("mark event %s failed: %w", ev.ID, markErr)
			}
			continue
		}
		if err := r.outbox.MarkEventDelivered(ctx, ev.ID, key, r.now()); err != nil {
			return delivered, fmt.Errorf("mark event %s delivered: %w", ev.ID, err)
		}
		delivered++
		r.logger.Debug("review event delivered", "event_id", ev.ID, "event_type", ev.EventType, "archive_key", key)
	}
	return delivered, nil
}

func (r *Relay) deliver(ctx context.Context, ev models.ReviewEvent) (string, error) {
	body, err := events.Encode(ev)
	if err != nil {
		return "", err
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, ev, body); err != nil {
			return "", fmt.Errorf("publish: %w", err)
		}
	}
	if r.archiver == nil {
		return "", nil
	}
	key, err := r.archiver.Archive(ctx, ev, body)
	if err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}
	return key, nil
}

// Start runs RunOnce every interval until Shutdown. A run that overlaps the
// next tick delays it rather than running concurrently.
func (r *Relay) Start(ctx context.Context, interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			n, err := r.RunOnce(ctx)
			if err != nil {
				r.logger.Error("outbox relay run failed", "error", err)
				return
			}
			if n > 0 {
				r.logger.Info("outbox relay delivered events", "count", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule relay: %w", err)
	}
	sched.Start()
	r.sched = sched
	r.logger.Info("outbox relay started", "interval", interval.String(), "batch_size", r.batchSize,
		"publish", r.publisher != nil, "archive", r.archiver != nil)
	return nil
}

// Shutdown stops the scheduler, waits for an in-flight run and closes the publisher.
func (r *Relay) Shutdown() error {
	var err error
	if r.sched != nil {
		err = r.sched.Shutdown()
	}
	if r.publisher != nil {
		if cerr := r.publisher.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
