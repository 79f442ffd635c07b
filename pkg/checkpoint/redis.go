package checkpoint

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces checkpoint keys in a shared Redis.
const DefaultRedisPrefix = "bayesaudit:"

// RedisStore keeps checkpoints in Redis. Connection failures are marked
// [Retryable].
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the Redis server at url, for example
// "redis://localhost:6379/0". An empty prefix means [DefaultRedisPrefix].
func NewRedisStore(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisStoreFromClient(redis.NewClient(opts), prefix), nil
}

// NewRedisStoreFromClient wraps an existing client. The store takes
// ownership of the client and closes it in [RedisStore.Close].
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Name returns "redis".
func (s *RedisStore) Name() string { return "redis" }

// Get retrieves a value.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, Retryable(err)
	}
	return data, true, nil
}

// Set stores a value with an optional expiry.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return Retryable(s.client.Set(ctx, s.prefix+key, data, ttl).Err())
}

// Delete removes a value.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return Retryable(s.client.Del(ctx, s.prefix+key).Err())
}

// Keys scans for all keys under the store's prefix.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, Retryable(err)
	}
	return keys, nil
}

// Close closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
