package counter

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// backends returns each ViewCounter implementation with a function that
// stores a raw value for a slug the way an external writer would.
func backends(t *testing.T) map[string]struct {
	counter types.ViewCounter
	set     func(slug, raw string)
} {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rc.Close() })

	mem := NewMemory()

	return map[string]struct {
		counter types.ViewCounter
		set     func(slug, raw string)
	}{
		"redis": {
			counter: rc,
			set: func(slug, raw string) {
				require.NoError(t, mr.Set(types.ViewsKey(slug), raw))
			},
		},
		"memory": {
			counter: mem,
			set:     mem.Set,
		},
	}
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b.set("counted", "42")
			b.set("padded", " 7 ")
			b.set("garbage", "lots")

			n, err := b.counter.Views(ctx, "counted")
			require.NoError(t, err)
			assert.Equal(t, int64(42), n)

			n, err = b.counter.Views(ctx, "padded")
			require.NoError(t, err)
			assert.Equal(t, int64(7), n)

			n, err = b.counter.Views(ctx, "never-viewed")
			require.NoError(t, err)
			assert.Zero(t, n, "absent counter reads as zero")

			_, err = b.counter.Views(ctx, "garbage")
			assert.Error(t, err)
		})
	}
}

func TestIncr(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			n, err := b.counter.Incr(ctx, "fresh")
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			b.set("seeded", "9")
			n, err = b.counter.Incr(ctx, "seeded")
			require.NoError(t, err)
			assert.Equal(t, int64(10), n)

			n, err = b.counter.Views(ctx, "seeded")
			require.NoError(t, err)
			assert.Equal(t, int64(10), n)
		})
	}
}

func TestIncrConcurrent(t *testing.T) {
	ctx := context.Background()
	const workers, perWorker = 8, 25

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range perWorker {
						_, err := b.counter.Incr(ctx, "hot")
						assert.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			n, err := b.counter.Views(ctx, "hot")
			require.NoError(t, err)
			assert.Equal(t, int64(workers*perWorker), n)
		})
	}
}

func TestRedisKeyLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedisFromURL("redis://" + mr.Addr())
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Ping(context.Background()))
	_, err = rc.Incr(context.Background(), "hello-nix")
	require.NoError(t, err)

	got, err := mr.Get("post:views:hello-nix")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	defer rc.Close()
	mr.Close()

	_, err := rc.Views(context.Background(), "any")
	assert.Error(t, err, "an unreachable store is an error, not zero")
}

func TestOpen(t *testing.T) {
	t.Run("empty backend is memory", func(t *testing.T) {
		c, err := Open(types.CounterConfig{})
		require.NoError(t, err)
		assert.IsType(t, &Memory{}, c)
	})

	t.Run("redis backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c, err := Open(types.CounterConfig{Backend: types.CounterRedis, RedisURL: "redis://" + mr.Addr() + "/0"})
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &Redis{}, c)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(types.CounterConfig{Backend: "etcd"})
		assert.ErrorIs(t, err, types.ErrCounterUnknown)
	})
}

func TestMemoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	_, err := m.Views(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = m.Incr(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
