package counter

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// Memory keeps counters in a map. It serves single-process deployments and
// tests; counts are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ types.ViewCounter = (*Memory)(nil)

// NewMemory returns an empty in-memory counter store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Views implements types.ViewCounter.
func (m *Memory) Views(ctx context.Context, slug string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := types.ViewsKey(slug)
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok || raw == "" {
		return 0, nil
	}
	return parseCount(key, raw)
}

// Incr implements types.ViewCounter.
func (m *Memory) Incr(ctx context.Context, slug string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := types.ViewsKey(slug)
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	if raw, ok := m.data[key]; ok && raw != "" {
		var err error
		if n, err = parseCount(key, raw); err != nil {
			return 0, err
		}
	}
	n++
	m.data[key] = formatCount(n)
	return n, nil
}

// Set stores a raw counter value for slug, as an external writer would.
func (m *Memory) Set(slug, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[types.ViewsKey(slug)] = raw
}

// Close implements types.ViewCounter.
func (m *Memory) Close() error {
	return nil
}
