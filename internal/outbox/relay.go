package outbox

import (
	"context"
	"log"
	"time"
)

// Source yields pending entries for the relay. *Store satisfies it; tests
// use an in-memory source.
type Source interface {
	Pending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, id int64) error
}

// RawPublisher delivers an already-encoded event body to the broker.
type RawPublisher interface {
	Publish(ctx context.Context, eventType string, body []byte) error
}

// Relay polls the outbox and publishes pending entries. A failed publish
// leaves the row pending, so delivery is at-least-once; consumers must
// tolerate duplicates.
type Relay struct {
	Source    Source
	Publisher RawPublisher
	Interval  time.Duration
	BatchSize int
}

// Run polls until ctx ends. It drains once immediately so events queued
// before a restart go out without waiting for the first tick.
func (r *Relay) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	r.Drain(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain publishes every currently pending entry, stopping at the first
// publish failure to preserve ordering.
func (r *Relay) Drain(ctx context.Context) {
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}

	for {
		entries, err := r.Source.Pending(ctx, batch)
		if err != nil {
			log.Printf("outbox: listing pending entries: %v", err)
			return
		}
		if len(entries) == 0 {
			return
		}

		for _, e := range entries {
			if err := r.Publisher.Publish(ctx, e.EventType, e.Payload); err != nil {
				log.Printf("outbox: publishing entry %d (%s): %v", e.ID, e.EventType, err)
				return
			}
			if err := r.Source.MarkPublished(ctx, e.ID); err != nil {
				// The publish went out; a failed stamp means this entry is
				// re-published next tick. Duplicates, not loss.
				log.Printf("outbox: marking entry %d published: %v", e.ID, err)
				return
			}
		}

		if len(entries) < batch {
			return
		}
	}
}
