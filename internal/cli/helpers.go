package cli

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/inkpot/internal/counter"
	"github.com/mesh-intelligence/inkpot/internal/sqlite"
	"github.com/mesh-intelligence/inkpot/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend() (*sqlite.Backend, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(a.cfg.storeConfig(dataDir)); err != nil {
		if isConfigError(err) {
			return nil, fmt.Errorf("config: %w", err)
		}
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}
	return backend, nil
}

// openCounter opens the configured view-counter store. The caller must
// Close it.
func (a *app) openCounter() (types.ViewCounter, error) {
	c, err := counter.Open(a.cfg.storeConfig("").Counter)
	if err != nil {
		if isConfigError(err) {
			return nil, fmt.Errorf("config: %w", err)
		}
		return nil, sysError(fmt.Errorf("open counter: %w", err))
	}
	return c, nil
}

func isConfigError(err error) bool {
	for _, target := range []error{
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrCounterUnknown,
		types.ErrRedisURLEmpty,
		types.ErrRedisURLInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isEntityNotFound returns true if the error wraps ErrNotFound.
func isEntityNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
