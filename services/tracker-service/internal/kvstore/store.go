// Package kvstore is the durable persistence boundary: one JSON payload
// per named collection, with get-all / set-all semantics. The domain
// packages keep their working set in memory and write through on every
// mutation, so a backend only ever sees whole-collection snapshots.
package kvstore

import "context"

// Collection names used by the tracker core.
const (
	Appointments = "appointments"
	Customers    = "customers"
	Staff        = "staff"
	Outbox       = "outbox"
	Inbox        = "inbox"
)

// Store abstracts the durable backend. Load returns a nil payload (not
// an error) for a collection that has never been saved.
type Store interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, collection string, payload []byte) error
	Ping(ctx context.Context) error
}

func ReadyCheck(s Store) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.Ping(ctx)
	}
}
