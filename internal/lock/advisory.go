// Package lock prevents concurrent seed runs against the same scenario
// using MySQL advisory locks on the relational store.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrLockTimeout is returned when another instance is already seeding
// the scenario.
var ErrLockTimeout = errors.New("seed lock acquisition timed out")

// Acquisition timeouts in seconds. MySQL treats negative values as an
// infinite wait.
const (
	TimeoutImmediate = 0
	TimeoutShort     = 1
	TimeoutLong      = 60
)

// SeedLock is a MySQL advisory lock named after a seed scenario. The
// server releases it automatically when the connection closes, but
// explicit release is the normal path.
type SeedLock struct {
	db       *sql.DB
	lockName string
	held     bool
}

// NewSeedLock creates an unacquired lock for the given scenario.
func NewSeedLock(db *sql.DB, scenario string) *SeedLock {
	return &SeedLock{db: db, lockName: LockName(scenario)}
}

// Acquire attempts to take the lock, waiting up to timeoutSeconds.
// Returns false without error when the wait timed out.
//
// GET_LOCK returns 1 on success, 0 on timeout, NULL on server error.
func (l *SeedLock) Acquire(ctx context.Context, timeoutSeconds int) (bool, error) {
	if l.held {
		return true, nil
	}

	var result sql.NullInt64
	err := l.db.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", l.lockName, timeoutSeconds).Scan(&result)
	if err != nil {
		return false, fmt.Errorf("GET_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("GET_LOCK returned NULL for %q", l.lockName)
	}

	switch result.Int64 {
	case 1:
		l.held = true
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected GET_LOCK result %d", result.Int64)
	}
}

// AcquireOrFail takes the lock with a short wait and fails with
// ErrLockTimeout when another run holds it.
func (l *SeedLock) AcquireOrFail(ctx context.Context) error {
	acquired, err := l.Acquire(ctx, TimeoutShort)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: %q is held by another run", ErrLockTimeout, l.lockName)
	}
	return nil
}

// Release gives the lock back. Returns false when the lock was not held
// by this connection.
//
// RELEASE_LOCK returns 1 on success, 0 when another thread owns the
// lock, NULL when the lock does not exist.
func (l *SeedLock) Release(ctx context.Context) (bool, error) {
	if !l.held {
		return false, nil
	}

	var result sql.NullInt64
	err := l.db.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", l.lockName).Scan(&result)
	if err != nil {
		return false, fmt.Errorf("RELEASE_LOCK: %w", err)
	}

	l.held = false
	if !result.Valid {
		return false, fmt.Errorf("RELEASE_LOCK returned NULL for %q", l.lockName)
	}
	return result.Int64 == 1, nil
}

// IsHeld reports whether this instance holds the lock.
func (l *SeedLock) IsHeld() bool { return l.held }

// Name returns the full advisory lock name.
func (l *SeedLock) Name() string { return l.lockName }

// LockName builds the namespaced lock name for a scenario. MySQL caps
// lock names at 64 characters, so long scenarios are truncated, and
// problematic characters are replaced to keep names stable.
func LockName(scenario string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, scenario)

	name := "polyseed:seed:" + sanitized
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}
