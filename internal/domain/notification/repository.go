package notification

import (
	"context"
	"time"
)

// StatusFields carries the columns a CAS transition writes alongside status.
// Nil pointers leave the column untouched; LastError uses ClearError to
// distinguish "clear" from "keep".
type StatusFields struct {
	LastError   *string
	ClearError  bool
	LastTriedAt *time.Time
	SentAt      *time.Time
}

// Repository defines the interface for persisting outbox records.
type Repository interface {
	// Create persists a new queued record. When a live record already holds
	// the same dedupe key the store's unique constraint surfaces as
	// ErrDuplicateKey.
	Create(ctx context.Context, record *Record) error

	// Get retrieves a record by id. Returns ErrNotFound when unknown.
	Get(ctx context.Context, id int64) (*Record, error)

	// FindLiveByDedupeKey returns the live (queued/dispatching/failed)
	// record holding the key, or nil when none exists.
	FindLiveByDedupeKey(ctx context.Context, key string) (*Record, error)

	// CASStatus atomically moves a record from one status to another,
	// writing fields in the same statement. Returns false when the record
	// was not in the expected status.
	CASStatus(ctx context.Context, id int64, from, to Status, fields StatusFields) (bool, error)

	// Requeue re-arms a queued or failed record for dispatch: retries+1,
	// status back to queued, error cleared. Returns false when the record
	// is dispatching or sent.
	Requeue(ctx context.Context, id int64) (bool, error)

	// List returns records ordered by creation time, newest first.
	// A zero status means no status filter.
	List(ctx context.Context, status Status, limit, offset int) ([]*Record, error)

	// ReleaseStuck moves records stuck in dispatching for longer than
	// olderThan back to failed so operators can retry them. Returns the
	// number of records released.
	ReleaseStuck(ctx context.Context, olderThan time.Duration, reason string) (int64, error)
}
