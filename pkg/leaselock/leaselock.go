// Package leaselock provides TTL-bounded mutual exclusion. A lease expires on
// its own if the holder crashes, so a stuck process can never deadlock the
// operation it was guarding. The same primitive serves per-record dispatch
// guards and single-flight admin operations.
package leaselock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyKey is returned when an empty lock key is provided.
	ErrEmptyKey = errors.New("lease lock key cannot be empty")
	// ErrNotHeld is returned when unlock is called on a lease that was not
	// held or already expired.
	ErrNotHeld = errors.New("lease was not held or already expired")
)

// Handle represents an acquired lease. It must be released via Unlock;
// if the holder dies first the TTL releases it.
type Handle interface {
	Unlock(ctx context.Context) error
}

// Locker acquires TTL leases. Acquisition never blocks: a busy lease returns
// acquired=false and the caller decides whether that means "skip" or
// "conflict".
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Handle, bool, error)
}
