// Package instance keeps a single coordinator per lock file. Room state
// lives in process memory, so two coordinators behind one address would
// split rooms.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("another instance holds the lock")

type Lock struct {
	fl *flock.Flock
}

// Acquire takes path without waiting. An empty path disables locking and
// returns a no-op Lock.
func Acquire(path string) (*Lock, error) {
	if path == "" {
		return &Lock{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lock dir: %w", err)
	}
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
	}
	log.Info().Str("module", "instance").Str("path", path).Msg("instance lock acquired")
	return &Lock{fl: fl}, nil
}

func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
