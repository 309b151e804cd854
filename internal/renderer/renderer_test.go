package renderer

import (
	"encoding/json"
	"testing"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderPaidPayload() json.RawMessage {
	return json.RawMessage(`{
		"orderId": "A1001",
		"customerName": "김서연",
		"email": "seoyeon@example.com",
		"phone": "010-1234-5678",
		"totalAmount": 129000,
		"itemSummary": "요넥스 폴리투어 프로 외 1건"
	}`)
}

func TestRender_AllChannels(t *testing.T) {
	r := New()

	out, err := r.Render(notification.EventOrderPaid, orderPaidPayload(), []notification.Channel{
		notification.ChannelEmail,
		notification.ChannelSMS,
		notification.ChannelChat,
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	email := out[notification.ChannelEmail]
	assert.Equal(t, "seoyeon@example.com", email.To)
	assert.Contains(t, email.Subject, "A1001")
	assert.Contains(t, email.HTML, "김서연")
	assert.Contains(t, email.HTML, "129000")

	sms := out[notification.ChannelSMS]
	assert.Equal(t, "01012345678", sms.To, "phone digits are normalized")
	assert.Contains(t, sms.Text, "A1001")

	chat := out[notification.ChannelChat]
	assert.Empty(t, chat.To, "chat goes to the staff webhook, no recipient")
	assert.Contains(t, chat.Text, "김서연")
}

func TestRender_Deterministic(t *testing.T) {
	r := New()
	channels := []notification.Channel{notification.ChannelEmail, notification.ChannelSMS}

	first, err := r.Render(notification.EventOrderPaid, orderPaidPayload(), channels)
	require.NoError(t, err)
	second, err := r.Render(notification.EventOrderPaid, orderPaidPayload(), channels)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRender_UnsupportedEvent(t *testing.T) {
	r := New()

	_, err := r.Render("payment.refund_requested", orderPaidPayload(), []notification.Channel{notification.ChannelEmail})
	require.Error(t, err)

	renderErr, ok := notification.AsRenderError(err)
	require.True(t, ok)
	assert.Equal(t, notification.ReasonUnsupportedEvent, renderErr.Reason)
}

func TestRender_UnsupportedChannel(t *testing.T) {
	r := New()

	_, err := r.Render(notification.EventOrderPaid, orderPaidPayload(), []notification.Channel{"fax"})
	require.Error(t, err)

	renderErr, ok := notification.AsRenderError(err)
	require.True(t, ok)
	assert.Equal(t, notification.ReasonUnsupportedChannel, renderErr.Reason)
}

func TestRender_MissingFields(t *testing.T) {
	r := New()

	tests := []struct {
		name    string
		payload string
		channel notification.Channel
		field   string
	}{
		{
			name:    "no order id",
			payload: `{"customerName":"김서연","email":"a@b.c"}`,
			channel: notification.ChannelEmail,
			field:   "orderId",
		},
		{
			name:    "no email for email channel",
			payload: `{"orderId":"A1001","customerName":"김서연","phone":"01012345678"}`,
			channel: notification.ChannelEmail,
			field:   "email",
		},
		{
			name:    "no phone for sms channel",
			payload: `{"orderId":"A1001","customerName":"김서연","email":"a@b.c"}`,
			channel: notification.ChannelSMS,
			field:   "phone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(notification.EventOrderPaid, json.RawMessage(tt.payload), []notification.Channel{tt.channel})
			require.Error(t, err)

			renderErr, ok := notification.AsRenderError(err)
			require.True(t, ok)
			assert.Equal(t, notification.ReasonMissingField, renderErr.Reason)
			assert.Equal(t, tt.field, renderErr.Field)
		})
	}
}

func TestRender_EveryEventHasTemplates(t *testing.T) {
	events := []notification.EventType{
		notification.EventOrderPaid,
		notification.EventOrderCanceled,
		notification.EventStringingStatusUpdated,
		notification.EventRentalReturned,
		notification.EventRentalOverdue,
	}
	for _, event := range events {
		_, ok := templates[event]
		assert.True(t, ok, "missing templates for %s", event)
	}
}

func TestRender_HTMLEscaped(t *testing.T) {
	r := New()
	payload := json.RawMessage(`{
		"orderId": "A1001",
		"customerName": "<script>alert(1)</script>",
		"email": "seoyeon@example.com"
	}`)

	out, err := r.Render(notification.EventOrderPaid, payload, []notification.Channel{notification.ChannelEmail})
	require.NoError(t, err)
	assert.NotContains(t, out[notification.ChannelEmail].HTML, "<script>")
}
