package types

import (
	"errors"
	"strings"
)

// Config holds backend selection and parameters for attaching the site's
// stores.
type Config struct {
	Backend string        `json:"backend" yaml:"backend"`
	DataDir string        `json:"data_dir" yaml:"data_dir"`
	Counter CounterConfig `json:"counter" yaml:"counter"`
}

// CounterConfig selects the view-counter store.
type CounterConfig struct {
	Backend  string `json:"backend" yaml:"backend"`
	RedisURL string `json:"redis_url" yaml:"redis_url"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"

	CounterRedis  = "redis"
	CounterMemory = "memory"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrCounterUnknown  = errors.New("unknown counter backend")
	ErrRedisURLEmpty   = errors.New("redis url must not be empty")
	ErrRedisURLInvalid = errors.New("redis url must use redis:// or rediss://")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownCounters = map[string]bool{
	CounterRedis:  true,
	CounterMemory: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. An empty counter backend means memory.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return c.Counter.Validate()
}

// Validate checks the counter section of a Config.
func (c CounterConfig) Validate() error {
	if c.Backend == "" {
		return nil
	}
	if !knownCounters[c.Backend] {
		return ErrCounterUnknown
	}
	if c.Backend != CounterRedis {
		return nil
	}
	if c.RedisURL == "" {
		return ErrRedisURLEmpty
	}
	if !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		return ErrRedisURLInvalid
	}
	return nil
}
