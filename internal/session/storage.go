package session

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Storage is a string key-value store with expiry.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NewRedisStorage stores sessions in Redis so every API replica sees them.
func NewRedisStorage(client *redis.Client) Storage {
	return &redisStorage{client: client}
}

type redisStorage struct {
	client *redis.Client
}

func (s *redisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *redisStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// NewMemoryStorage keeps sessions in process memory. Single node only.
func NewMemoryStorage() Storage {
	return &memoryStorage{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

type memoryStorage struct {
	cache *cache.Cache
}

func (s *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	str, _ := v.(string)
	return str, true, nil
}

func (s *memoryStorage) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
