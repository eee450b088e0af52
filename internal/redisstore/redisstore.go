// Package redisstore backs the cache and table-lock ports with Redis. Hot
// state snapshots live in hashes; locks are SET NX keys with a TTL lease so
// a crashed holder expires instead of deadlocking other nodes.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lox/dealerd/internal/handid"
)

// releaseScript deletes the lock only if we still hold it, so an expired
// lease can never release a lock a peer has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Store implements engine.Cache and engine.Locker.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis at the given URL (redis://host:port).
func New(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &Store{rdb: redis.NewClient(opts)}, nil
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// HSet writes fields into a hash.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return s.rdb.HSet(ctx, key, args...).Err()
}

// HGet reads a hash field; ok is false when the field is absent.
func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	value, err := s.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Acquire takes a named exclusive lock with the given lease, retrying until
// the context expires. The returned func releases the lock.
func (s *Store) Acquire(ctx context.Context, name string, lease time.Duration) (func(), error) {
	token := handid.New()

	for {
		ok, err := s.rdb.SetNX(ctx, name, token, lease).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", name, err)
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, s.rdb, []string{name}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", name, ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}
