package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	homedir "github.com/mitchellh/go-homedir"
)

const historyLockRetry = 100 * time.Millisecond

// HistoryLock serialises writers of one history database across qrsafe
// processes. Readers do not take it; SQLite handles concurrent reads.
type HistoryLock struct {
	file *flock.Flock
}

// NewHistoryLock places the lock file next to the database, as <db>.lock.
func NewHistoryLock(dbPath string) (*HistoryLock, error) {
	abs, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve history path: %w", err)
	}
	return &HistoryLock{file: flock.New(abs + ".lock")}, nil
}

// Acquire blocks until no other writer holds the history database or ctx is
// done.
func (l *HistoryLock) Acquire(ctx context.Context) error {
	ok, err := l.file.TryLock()
	if err == nil && !ok {
		Log.Debugf("History database %s is busy, waiting", l.file.Path())
		ok, err = l.file.TryLockContext(ctx, historyLockRetry)
	}
	if err != nil {
		return fmt.Errorf("history lock %s: %w", l.file.Path(), err)
	}
	if !ok {
		return fmt.Errorf("history lock %s: not acquired", l.file.Path())
	}
	return nil
}

// Release is a no-op when the lock file is already gone.
func (l *HistoryLock) Release() error {
	if err := l.file.Unlock(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("history lock %s: %w", l.file.Path(), err)
	}
	return nil
}

// GetAbsDBPath resolves the history database path. Empty means
// ~/.config/qrsafe/history.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath != "" {
		return filepath.Abs(dbPath)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qrsafe", "history.sqlite"), nil
}
