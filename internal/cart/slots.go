package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Slots hands out the slot for a cart session key.
type Slots interface {
	Slot(key string) Slot
}

// MemorySlots keeps snapshots in process memory.
type MemorySlots struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{data: make(map[string][]byte)}
}

func (m *MemorySlots) Slot(key string) Slot {
	return &memorySlot{parent: m, key: key}
}

type memorySlot struct {
	parent *MemorySlots
	key    string
}

func (s *memorySlot) Read(_ context.Context) ([]byte, error) {
	s.parent.mu.RLock()
	defer s.parent.mu.RUnlock()
	data, ok := s.parent.data[s.key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *memorySlot) Write(_ context.Context, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.parent.mu.Lock()
	s.parent.data[s.key] = buf
	s.parent.mu.Unlock()
	return nil
}

func (s *memorySlot) Clear(_ context.Context) error {
	s.parent.mu.Lock()
	delete(s.parent.data, s.key)
	s.parent.mu.Unlock()
	return nil
}

// RedisSlots stores each snapshot under "cart:<key>" with a sliding TTL that is
// refreshed on every write.
type RedisSlots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlots(client *redis.Client, ttl time.Duration) *RedisSlots {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisSlots{client: client, ttl: ttl}
}

func (r *RedisSlots) Slot(key string) Slot {
	return &redisSlot{client: r.client, key: "cart:" + key, ttl: r.ttl}
}

type redisSlot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func (s *redisSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (s *redisSlot) Write(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

func (s *redisSlot) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
