package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMapperRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	tried := now.Add(-time.Minute)

	domain := &notification.Record{
		ID:        1902345678901234567,
		EventType: notification.EventOrderPaid,
		Channels:  []notification.Channel{notification.ChannelEmail, notification.ChannelSMS},
		Payload:   json.RawMessage(`{"orderId":"A1001","customerName":"김서연"}`),
		Rendered: map[notification.Channel]notification.Content{
			notification.ChannelEmail: {To: "seoyeon@example.com", Subject: "주문 안내", HTML: "<p>hi</p>"},
			notification.ChannelSMS:   {To: "01012345678", Text: "[Sub010] 안내"},
		},
		Status:      notification.StatusFailed,
		Retries:     2,
		DedupeKey:   "order.paid:A1001",
		LastError:   "sms: gateway returned 500",
		CreatedAt:   now,
		UpdatedAt:   now,
		LastTriedAt: &tried,
	}

	model, err := toModel(domain)
	require.NoError(t, err)
	assert.Equal(t, "outbox_records", model.TableName())
	require.NotNil(t, model.DedupeKey)
	assert.Equal(t, domain.DedupeKey, *model.DedupeKey)
	require.NotNil(t, model.LastError)

	back, err := toDomain(model)
	require.NoError(t, err)
	assert.Equal(t, domain, back)
}

func TestRecordMapperEmptyOptionals(t *testing.T) {
	domain := notification.NewRecord(7, notification.EventRentalOverdue, json.RawMessage(`{}`),
		[]notification.Channel{notification.ChannelChat},
		map[notification.Channel]notification.Content{notification.ChannelChat: {Text: "연체 안내"}}, "")

	model, err := toModel(domain)
	require.NoError(t, err)
	assert.Nil(t, model.DedupeKey, "empty dedupe key stores as NULL so it never collides in the unique index")
	assert.Nil(t, model.LastError)

	back, err := toDomain(model)
	require.NoError(t, err)
	assert.Equal(t, domain, back)
}

func TestLiveStatusesExcludeSent(t *testing.T) {
	assert.NotContains(t, liveStatuses, string(notification.StatusSent))
	assert.ElementsMatch(t, liveStatuses, []string{"queued", "dispatching", "failed"})
}
