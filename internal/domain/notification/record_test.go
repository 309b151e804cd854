package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasRendered(t *testing.T) {
	tests := []struct {
		name     string
		channels []Channel
		rendered map[Channel]Content
		want     bool
	}{
		{
			name:     "all channels rendered",
			channels: []Channel{ChannelEmail, ChannelSMS},
			rendered: map[Channel]Content{
				ChannelEmail: {HTML: "<p>hi</p>"},
				ChannelSMS:   {Text: "hi"},
			},
			want: true,
		},
		{
			name:     "nil rendered map",
			channels: []Channel{ChannelEmail},
			rendered: nil,
			want:     false,
		},
		{
			name:     "missing one channel",
			channels: []Channel{ChannelEmail, ChannelSMS},
			rendered: map[Channel]Content{ChannelEmail: {HTML: "<p>hi</p>"}},
			want:     false,
		},
		{
			name:     "entry with empty bodies",
			channels: []Channel{ChannelEmail},
			rendered: map[Channel]Content{ChannelEmail: {Subject: "subject only"}},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Channels: tt.channels, Rendered: tt.rendered}
			assert.Equal(t, tt.want, r.HasRendered())
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, (&Record{Status: StatusSent}).Terminal())
	assert.False(t, (&Record{Status: StatusFailed}).Terminal())

	assert.True(t, (&Record{Status: StatusQueued}).Live())
	assert.True(t, (&Record{Status: StatusDispatching}).Live())
	assert.True(t, (&Record{Status: StatusFailed}).Live())
	assert.False(t, (&Record{Status: StatusSent}).Live())
}

func TestNewRecord(t *testing.T) {
	rendered := map[Channel]Content{ChannelEmail: {To: "a@b.c", HTML: "<p>hi</p>"}}
	r := NewRecord(42, EventOrderPaid, json.RawMessage(`{"orderId":"A1"}`), []Channel{ChannelEmail}, rendered, "order.paid:A1")

	assert.Equal(t, int64(42), r.ID)
	assert.Equal(t, StatusQueued, r.Status)
	assert.Equal(t, 0, r.Retries)
	assert.Equal(t, "order.paid:A1", r.DedupeKey)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
	assert.Nil(t, r.SentAt)
}

func TestRecordJSONIDAsString(t *testing.T) {
	r := &Record{ID: 1902345678901234567, Status: StatusQueued}
	raw, err := json.Marshal(r)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"1902345678901234567"`, "snowflake ids serialize as strings to survive JS clients")
}

func TestKnownChannel(t *testing.T) {
	assert.True(t, KnownChannel(ChannelEmail))
	assert.True(t, KnownChannel(ChannelSMS))
	assert.True(t, KnownChannel(ChannelChat))
	assert.False(t, KnownChannel("fax"))
}
