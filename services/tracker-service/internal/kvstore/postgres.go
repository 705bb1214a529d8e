package kvstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/monume/tracker/libs/db"
)

// Postgres stores each collection as a single jsonb row. The schema is
// created on open so a fresh database works without a migration step.
type Postgres struct {
	pool *db.Pool
}

func NewPostgres(ctx context.Context, pool *db.Pool) (*Postgres, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
			name text PRIMARY KEY,
			payload jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Load(ctx context.Context, collection string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload
		FROM collections
		WHERE name = $1
	`, collection).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Postgres) Save(ctx context.Context, collection string, payload []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collections (name, payload)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET payload = EXCLUDED.payload,
			updated_at = now()
	`, collection, payload)
	return err
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
