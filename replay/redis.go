package replay

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eringen/routeweb/gateway"
)

// redisKeyPrefix namespaces slot keys.
const redisKeyPrefix = "routeweb:replay:"

// RedisStore keeps slots in Redis. Keys expire after ttl so slots of tabs
// that never come back do not accumulate.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, host, port, username, password string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Username: username,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Publish(ctx context.Context, tab string, result *gateway.RouteResult) error {
	data, err := encode(result)
	if err != nil {
		return err
	}
	return s.wrap(s.client.Set(ctx, redisKeyPrefix+tab, data, s.ttl).Err())
}

func (s *RedisStore) Consume(ctx context.Context, tab string) (*gateway.RouteResult, bool, error) {
	data, err := s.client.GetDel(ctx, redisKeyPrefix+tab).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.wrap(err)
	}
	r, ok := decode(data)
	return r, ok, nil
}

func (s *RedisStore) Purge(ctx context.Context, live func(tab string) bool) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if live(key[len(redisKeyPrefix):]) {
			continue
		}
		removed, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return n, s.wrap(err)
		}
		n += int(removed)
	}
	return n, s.wrap(iter.Err())
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) wrap(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrClosed
	}
	return err
}
