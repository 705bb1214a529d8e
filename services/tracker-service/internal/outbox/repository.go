// Package outbox durably queues appointment mutation events until the
// publisher relays them to Kafka. Events are appended in the mutation
// path, so a consumer can never observe an event for a write that
// didn't commit.
package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	otelx "github.com/monume/tracker/libs/otel"
	"github.com/monume/tracker/services/tracker-service/internal/kvstore"
	"github.com/monume/tracker/services/tracker-service/internal/model"
)

type Event struct {
	EventID       string          `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Traceparent   string          `json:"traceparent,omitempty"`
	Tracestate    string          `json:"tracestate,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Repository struct {
	mu      sync.Mutex
	store   kvstore.Store
	pending []Event
}

// NewRepository hydrates the pending queue from the durable store, so
// events unpublished at the last shutdown are retried.
func NewRepository(ctx context.Context, store kvstore.Store) (*Repository, error) {
	r := &Repository{store: store}
	payload, err := store.Load(ctx, kvstore.Outbox)
	if err != nil {
		return nil, model.Storage("load "+kvstore.Outbox, err)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &r.pending); err != nil {
			return nil, model.Storage("decode "+kvstore.Outbox, err)
		}
	}
	return r, nil
}

// Append queues an event. The event id and trace context are filled in
// here so callers only supply domain fields.
func (r *Repository) Append(ctx context.Context, evt Event) error {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	evt.Traceparent, evt.Tracestate = otelx.TraceContextStrings(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	next := append(append([]Event(nil), r.pending...), evt)
	if err := r.persistLocked(ctx, next); err != nil {
		return err
	}
	r.pending = next
	return nil
}

// FetchPending returns up to limit queued events, oldest first.
func (r *Repository) FetchPending(limit int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.pending) {
		limit = len(r.pending)
	}
	out := make([]Event, limit)
	copy(out, r.pending[:limit])
	return out
}

// MarkPublished drops the given events from the queue.
func (r *Repository) MarkPublished(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	published := make(map[string]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		published[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]Event, 0, len(r.pending))
	for _, evt := range r.pending {
		if _, ok := published[evt.EventID]; ok {
			continue
		}
		next = append(next, evt)
	}
	if err := r.persistLocked(ctx, next); err != nil {
		return err
	}
	r.pending = next
	return nil
}

func (r *Repository) persistLocked(ctx context.Context, pending []Event) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return model.Storage("encode "+kvstore.Outbox, err)
	}
	if err := r.store.Save(ctx, kvstore.Outbox, payload); err != nil {
		return model.Storage("save "+kvstore.Outbox, err)
	}
	return nil
}
