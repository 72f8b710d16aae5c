// Package counter implements the view-counter store behind types.ViewCounter.
// Counters are plain integers under types.ViewsKey(slug); a missing key reads
// as zero and keys never expire.
package counter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// Open returns the counter store selected by cfg. An empty backend selects
// the in-memory store.
func Open(cfg types.CounterConfig) (types.ViewCounter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.CounterRedis:
		return NewRedisFromURL(cfg.RedisURL)
	case types.CounterMemory, "":
		return NewMemory(), nil
	default:
		return nil, types.ErrCounterUnknown
	}
}

// parseCount converts a stored counter value. Values are written by INCR or
// by an external writer, so surrounding whitespace is tolerated.
func parseCount(key, raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter %s holds %q: %w", key, raw, err)
	}
	return n, nil
}

func formatCount(n int64) string {
	return strconv.FormatInt(n, 10)
}
