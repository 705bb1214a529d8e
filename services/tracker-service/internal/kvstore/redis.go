package kvstore

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis keeps one key per collection under a shared prefix. Payloads are
// whole-collection JSON blobs, so plain GET/SET is all it needs.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client, prefix string) *Redis {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "tracker"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (s *Redis) key(collection string) string {
	return s.prefix + ":" + collection
}

func (s *Redis) Load(ctx context.Context, collection string) ([]byte, error) {
	payload, err := s.rdb.Get(ctx, s.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Redis) Save(ctx context.Context, collection string, payload []byte) error {
	return s.rdb.Set(ctx, s.key(collection), payload, 0).Err()
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
