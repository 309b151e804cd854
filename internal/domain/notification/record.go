package notification

import (
	"encoding/json"
	"time"
)

// EventType identifies a domain event that produces a notification.
// The set is closed; the renderer's dispatch table is the source of truth
// for which events are supported.
type EventType string

const (
	EventOrderPaid              EventType = "order.paid"
	EventOrderCanceled          EventType = "order.canceled"
	EventStringingStatusUpdated EventType = "stringing.status_updated"
	EventRentalReturned         EventType = "rental.returned"
	EventRentalOverdue          EventType = "rental.overdue"
)

// Channel is a delivery channel kind.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelChat  Channel = "chat"
)

// KnownChannel reports whether c is one of the supported channel kinds.
func KnownChannel(c Channel) bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelChat:
		return true
	default:
		return false
	}
}

// Status represents the lifecycle state of an outbox record.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDispatching Status = "dispatching"
	StatusSent        Status = "sent"
	StatusFailed      Status = "failed"
)

// Content is the rendered, channel-specific message. It is produced once at
// enqueue time and never mutated, so retries resend byte-identical content.
// To carries the recipient captured from the payload snapshot; it is only
// ever used in transit to the channel adapter.
type Content struct {
	To      string   `json:"to,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	Subject string   `json:"subject,omitempty"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Record is one durable notification instance.
// It contains no database tags or infrastructure details.
type Record struct {
	ID        int64             `json:"id,string"`
	EventType EventType         `json:"event_type"`
	Channels  []Channel         `json:"channels"`
	Payload   json.RawMessage   `json:"payload"`
	Rendered  map[Channel]Content `json:"rendered"`
	Status    Status            `json:"status"`
	Retries   int               `json:"retries"`
	DedupeKey string            `json:"dedupe_key,omitempty"`
	LastError string            `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastTriedAt *time.Time `json:"last_tried_at,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

// NewRecord creates a queued record with frozen rendered content.
func NewRecord(id int64, eventType EventType, payload json.RawMessage, channels []Channel, rendered map[Channel]Content, dedupeKey string) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:        id,
		EventType: eventType,
		Channels:  channels,
		Payload:   payload,
		Rendered:  rendered,
		Status:    StatusQueued,
		DedupeKey: dedupeKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasRendered reports whether the record carries rendered content for every
// requested channel. A record failing this check must never be dispatched.
func (r *Record) HasRendered() bool {
	if len(r.Rendered) == 0 {
		return false
	}
	for _, ch := range r.Channels {
		c, ok := r.Rendered[ch]
		if !ok {
			return false
		}
		if c.HTML == "" && c.Text == "" {
			return false
		}
	}
	return true
}

// Terminal reports whether the record reached its terminal state.
// sent has no outgoing transition.
func (r *Record) Terminal() bool {
	return r.Status == StatusSent
}

// Live reports whether the record still occupies its dedupe key.
func (r *Record) Live() bool {
	switch r.Status {
	case StatusQueued, StatusDispatching, StatusFailed:
		return true
	default:
		return false
	}
}
