package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of the go-redis client used by RedisStore.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Close() error
}

// RedisStore shares the cache between every API instance.
type RedisStore struct {
	client RedisClient
	prefix string
}

// NewRedisStore connects to the redis server at addr.
func NewRedisStore(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "pinging redis at %s", addr)
	}
	return NewRedisStoreWithClient(client, prefix), nil
}

func NewRedisStoreWithClient(client RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "getting %s", key)
	}
	return data, true, nil
}

// Set stores value, a ttl <= 0 never expires.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return errors.Wrapf(s.client.Set(ctx, s.prefix+key, value, ttl).Err(), "setting %s", key)
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, s.prefix+key).Result()
	return n, errors.Wrapf(err, "incrementing %s", key)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
