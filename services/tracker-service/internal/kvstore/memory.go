package kvstore

import (
	"context"
	"sync"
)

// Memory is the in-process backend used for dev mode and tests.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{collections: map[string][]byte{}}
}

func (s *Memory) Load(_ context.Context, collection string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return cp, nil
}

func (s *Memory) Save(_ context.Context, collection string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.collections[collection] = cp
	return nil
}

func (s *Memory) Ping(context.Context) error { return nil }
