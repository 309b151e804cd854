package notification

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record id is unknown.
	ErrNotFound = errors.New("outbox record not found")
	// ErrConflict is returned when a status CAS lost the race. Callers must
	// not blindly retry; another dispatch already owns the record.
	ErrConflict = errors.New("outbox record claimed by another dispatch")
	// ErrAlreadySent is returned when retry is requested on a terminal record.
	ErrAlreadySent = errors.New("outbox record already sent")
	// ErrInvalidState is returned when a record cannot be dispatched as-is,
	// e.g. retry on a record with no rendered payload.
	ErrInvalidState = errors.New("outbox record has no rendered payload")
	// ErrDuplicateKey is returned by Create when a live record already
	// holds the dedupe key. Callers resolve it by fetching the live record.
	ErrDuplicateKey = errors.New("live outbox record exists for dedupe key")
	// ErrStoreUnavailable wraps infrastructure failures of the backing store.
	// It is distinct from a delivery failure and maps to a 5xx response.
	ErrStoreUnavailable = errors.New("outbox store unavailable")
)

// RenderReason classifies why rendering failed.
type RenderReason string

const (
	ReasonUnsupportedEvent   RenderReason = "unsupported_event"
	ReasonUnsupportedChannel RenderReason = "unsupported_channel"
	ReasonMissingField       RenderReason = "missing_field"
)

// RenderError is returned at enqueue time and is not retryable without a new
// payload.
type RenderError struct {
	Reason  RenderReason
	Event   EventType
	Channel Channel
	Field   string
}

func (e *RenderError) Error() string {
	switch e.Reason {
	case ReasonMissingField:
		return fmt.Sprintf("render %s: missing field %q", e.Event, e.Field)
	case ReasonUnsupportedChannel:
		return fmt.Sprintf("render %s: unsupported channel %q", e.Event, e.Channel)
	default:
		return fmt.Sprintf("render: unsupported event %q", e.Event)
	}
}

// AsRenderError unwraps err into a *RenderError if possible.
func AsRenderError(err error) (*RenderError, bool) {
	var re *RenderError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
