package leaselock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a process-local Locker. It is the default for single-node
// deployments and for tests; multi-replica deployments use RedisLocker.
type MemoryLocker struct {
	mu      sync.Mutex
	leases  map[string]memoryLease
	counter uint64
	now     func() time.Time
}

type memoryLease struct {
	token     uint64
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		leases: make(map[string]memoryLease),
		now:    time.Now,
	}
}

var _ Locker = (*MemoryLocker)(nil)

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (Handle, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.leases[key]; ok && lease.expiresAt.After(now) {
		return nil, false, nil
	}

	l.counter++
	lease := memoryLease{token: l.counter, expiresAt: now.Add(ttl)}
	l.leases[key] = lease

	return &memoryHandle{locker: l, key: key, token: lease.token}, true, nil
}

type memoryHandle struct {
	locker *MemoryLocker
	key    string
	token  uint64
}

func (h *memoryHandle) Unlock(_ context.Context) error {
	h.locker.mu.Lock()
	defer h.locker.mu.Unlock()

	lease, ok := h.locker.leases[h.key]
	if !ok || lease.token != h.token {
		return ErrNotHeld
	}
	if !lease.expiresAt.After(h.locker.now()) {
		delete(h.locker.leases, h.key)
		return ErrNotHeld
	}
	delete(h.locker.leases, h.key)
	return nil
}
