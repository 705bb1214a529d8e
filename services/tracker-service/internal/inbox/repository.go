package inbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/monume/tracker/services/tracker-service/internal/kvstore"
	"github.com/monume/tracker/services/tracker-service/internal/model"
)

type record struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	ConsumedAt time.Time `json:"consumed_at"`
}

// Repository deduplicates consumed events so redelivered Kafka messages
// are applied at most once.
type Repository struct {
	mu    sync.Mutex
	store kvstore.Store
	seen  map[string]record
}

func NewRepository(ctx context.Context, store kvstore.Store) (*Repository, error) {
	payload, err := store.Load(ctx, kvstore.Inbox)
	if err != nil {
		return nil, model.Storage("inbox load", err)
	}
	seen := make(map[string]record)
	if len(payload) > 0 {
		var records []record
		if err := json.Unmarshal(payload, &records); err != nil {
			return nil, model.Storage("inbox decode", err)
		}
		for _, rec := range records {
			seen[rec.EventID] = rec
		}
	}
	return &Repository{store: store, seen: seen}, nil
}

// Record returns true if the event has not been seen before. A false
// return with a nil error means a duplicate delivery.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[eventID]; ok {
		return false, nil
	}

	rec := record{EventID: eventID, EventType: eventType, ConsumedAt: time.Now().UTC()}
	records := make([]record, 0, len(r.seen)+1)
	for _, existing := range r.seen {
		records = append(records, existing)
	}
	records = append(records, rec)

	payload, err := json.Marshal(records)
	if err != nil {
		return false, model.Storage("inbox encode", err)
	}
	if err := r.store.Save(ctx, kvstore.Inbox, payload); err != nil {
		return false, model.Storage("inbox save", err)
	}

	r.seen[eventID] = rec
	return true, nil
}
