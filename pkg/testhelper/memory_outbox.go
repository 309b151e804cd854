package testhelper

import (
	"context"
	"sync"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
)

// MemoryOutbox is an in-memory notification.Repository with the same CAS and
// dedupe semantics as the postgres store. Safe for concurrent use.
type MemoryOutbox struct {
	mu      sync.Mutex
	records map[int64]*notification.Record

	// FailWith, when set, makes every operation fail. Used to simulate the
	// backing store being unreachable.
	FailWith error
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{records: make(map[int64]*notification.Record)}
}

var _ notification.Repository = (*MemoryOutbox)(nil)

func (m *MemoryOutbox) Create(_ context.Context, record *notification.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	if record.DedupeKey != "" {
		for _, existing := range m.records {
			if existing.DedupeKey == record.DedupeKey && existing.Live() {
				return notification.ErrDuplicateKey
			}
		}
	}

	clone := cloneRecord(record)
	m.records[record.ID] = clone
	return nil
}

func (m *MemoryOutbox) Get(_ context.Context, id int64) (*notification.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	record, ok := m.records[id]
	if !ok {
		return nil, notification.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (m *MemoryOutbox) FindLiveByDedupeKey(_ context.Context, key string) (*notification.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	for _, record := range m.records {
		if record.DedupeKey == key && record.Live() {
			return cloneRecord(record), nil
		}
	}
	return nil, nil
}

func (m *MemoryOutbox) CASStatus(_ context.Context, id int64, from, to notification.Status, fields notification.StatusFields) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return false, m.FailWith
	}

	record, ok := m.records[id]
	if !ok || record.Status != from {
		return false, nil
	}

	record.Status = to
	record.UpdatedAt = time.Now().UTC()
	if fields.ClearError {
		record.LastError = ""
	} else if fields.LastError != nil {
		record.LastError = *fields.LastError
	}
	if fields.LastTriedAt != nil {
		record.LastTriedAt = fields.LastTriedAt
	}
	if fields.SentAt != nil {
		record.SentAt = fields.SentAt
	}
	return true, nil
}

func (m *MemoryOutbox) Requeue(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return false, m.FailWith
	}

	record, ok := m.records[id]
	if !ok {
		return false, nil
	}
	if record.Status != notification.StatusQueued && record.Status != notification.StatusFailed {
		return false, nil
	}

	now := time.Now().UTC()
	record.Status = notification.StatusQueued
	record.Retries++
	record.LastError = ""
	record.LastTriedAt = &now
	record.UpdatedAt = now
	return true, nil
}

func (m *MemoryOutbox) List(_ context.Context, status notification.Status, limit, offset int) ([]*notification.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	var out []*notification.Record
	for _, record := range m.records {
		if status != "" && record.Status != status {
			continue
		}
		out = append(out, cloneRecord(record))
	}
	// Test helper: insertion-order independence is enough, skip sorting by
	// created_at unless a test needs it.
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryOutbox) ReleaseStuck(_ context.Context, olderThan time.Duration, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	var released int64
	for _, record := range m.records {
		if record.Status == notification.StatusDispatching && record.UpdatedAt.Before(cutoff) {
			record.Status = notification.StatusFailed
			record.LastError = reason
			record.UpdatedAt = time.Now().UTC()
			released++
		}
	}
	return released, nil
}

// Put stores a record verbatim, bypassing the dedupe guard. Tests use it to
// seed corrupt or historical states.
func (m *MemoryOutbox) Put(record *notification.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = cloneRecord(record)
}

func cloneRecord(r *notification.Record) *notification.Record {
	clone := *r
	clone.Channels = append([]notification.Channel{}, r.Channels...)
	if r.Rendered != nil {
		clone.Rendered = make(map[notification.Channel]notification.Content, len(r.Rendered))
		for k, v := range r.Rendered {
			clone.Rendered[k] = v
		}
	}
	if r.LastTriedAt != nil {
		t := *r.LastTriedAt
		clone.LastTriedAt = &t
	}
	if r.SentAt != nil {
		t := *r.SentAt
		clone.SentAt = &t
	}
	return &clone
}
