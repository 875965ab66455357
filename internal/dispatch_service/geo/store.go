package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TableStore caches fetched location tables.
// Get returns (nil, nil) on a miss.
type TableStore interface {
	Get(ctx context.Context, key string) (Table, error)
	Set(ctx context.Context, key string, table Table, ttl time.Duration) error
}

type memoryEntry struct {
	table     Table
	expiresAt time.Time
}

// MemoryTableStore keeps tables in process memory.
type MemoryTableStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryTableStore() *MemoryTableStore {
	return &MemoryTableStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryTableStore) Get(_ context.Context, key string) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || (!e.expiresAt.IsZero() && s.now().After(e.expiresAt)) {
		return nil, nil
	}
	return e.table, nil
}

func (s *MemoryTableStore) Set(_ context.Context, key string, table Table, ttl time.Duration) error {
	e := memoryEntry{table: table}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// RedisTableStore shares tables between service replicas.
type RedisTableStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisTableStore(client redis.UniversalClient) *RedisTableStore {
	return &RedisTableStore{client: client, prefix: "logistics:geo:"}
}

func (s *RedisTableStore) Get(ctx context.Context, key string) (Table, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding cached table %s: %w", key, err)
	}
	return t, nil
}

func (s *RedisTableStore) Set(ctx context.Context, key string, table Table, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, data, ttl).Err()
}
