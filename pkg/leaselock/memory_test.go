package leaselock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_AcquireAndRelease(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	handle, acquired, err := locker.TryLock(ctx, "outbox:retry:1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, busy, err := locker.TryLock(ctx, "outbox:retry:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, busy, "a held lease is not re-acquirable")

	require.NoError(t, handle.Unlock(ctx))

	_, again, err := locker.TryLock(ctx, "outbox:retry:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, again, "unlock frees the key")
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	_, acquired, err := locker.TryLock(ctx, "outbox:retry:1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, acquired, err = locker.TryLock(ctx, "outbox:retry:2", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLocker_TTLExpiry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	current := time.Now()
	locker.now = func() time.Time { return current }

	stale, acquired, err := locker.TryLock(ctx, "outbox:release-stuck", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// The holder dies; the lease lapses on its own.
	current = current.Add(2 * time.Minute)

	_, acquired, err = locker.TryLock(ctx, "outbox:release-stuck", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "expired leases are free to take")

	assert.ErrorIs(t, stale.Unlock(ctx), ErrNotHeld, "the old handle must not release the new lease")
}

func TestMemoryLocker_DoubleUnlock(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	handle, acquired, err := locker.TryLock(ctx, "outbox:retry:1", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, handle.Unlock(ctx))
	assert.ErrorIs(t, handle.Unlock(ctx), ErrNotHeld)
}

func TestMemoryLocker_EmptyKey(t *testing.T) {
	locker := NewMemoryLocker()

	_, _, err := locker.TryLock(context.Background(), "", time.Minute)
	assert.ErrorIs(t, err, ErrEmptyKey)
}
