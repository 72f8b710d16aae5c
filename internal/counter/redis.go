package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// Redis reads and increments counters with GET and INCR.
type Redis struct {
	client *redis.Client
}

var _ types.ViewCounter = (*Redis)(nil)

// NewRedis wraps an existing client. Close closes the client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// NewRedisFromURL connects using a redis:// or rediss:// URL.
func NewRedisFromURL(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedis(redis.NewClient(opts)), nil
}

// Views implements types.ViewCounter. redis.Nil means the post has never
// been counted.
func (r *Redis) Views(ctx context.Context, slug string) (int64, error) {
	key := types.ViewsKey(slug)
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	if raw == "" {
		return 0, nil
	}
	return parseCount(key, raw)
}

// Incr implements types.ViewCounter. INCR is atomic on the server.
func (r *Redis) Incr(ctx context.Context, slug string) (int64, error) {
	key := types.ViewsKey(slug)
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return n, nil
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close implements types.ViewCounter.
func (r *Redis) Close() error {
	return r.client.Close()
}
