package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

// LockError names the file whose lock could not be taken
type LockError struct {
	File string
	Err  error
}

func (e *LockError) Error() string { return fmt.Sprintf("lock %s: %v", e.File, e.Err) }
func (e *LockError) Unwrap() error { return e.Err }

// LockSet holds exclusive advisory locks on "<file>.lock" companions
type LockSet struct {
	locks []*flock.Flock
}

// LockAll takes an exclusive lock for every named data file. Each lock is retried
// every retryDelay until timeout; on any failure the locks already held are released.
func (s *LocalStorage) LockAll(ctx context.Context, names []string, timeout, retryDelay time.Duration) (*LockSet, error) {
	set := &LockSet{}
	for _, name := range names {
		fl := flock.New(s.GetFullPath(name) + ".lock")

		lockCtx, cancel := context.WithTimeout(ctx, timeout)
		locked, err := fl.TryLockContext(lockCtx, retryDelay)
		cancel()

		if err == nil && !locked {
			err = fmt.Errorf("still held after %s", timeout)
		}
		if err != nil {
			set.Release()
			return nil, &LockError{File: name, Err: err}
		}
		set.locks = append(set.locks, fl)
	}
	return set, nil
}

// Release unlocks everything and removes the lock files. Cleanup failures are
// only logged.
func (l *LockSet) Release() {
	if l == nil {
		return
	}
	for i := len(l.locks) - 1; i >= 0; i-- {
		fl := l.locks[i]
		if err := fl.Unlock(); err != nil {
			logger.Warn("Failed to release lock", "file", fl.Path(), "error", err)
			continue
		}
		if err := os.Remove(fl.Path()); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove lock file", "file", fl.Path(), "error", err)
		}
	}
	l.locks = nil
}

// Len returns the number of held locks
func (l *LockSet) Len() int {
	return len(l.locks)
}
