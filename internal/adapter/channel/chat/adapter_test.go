package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SeopE9611/sub010-backend/internal/config"
	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSend_PostsWebhookPayload(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := NewAdapter(&config.Config{ChatWebhookURL: server.URL}, zap.NewNop())

	err := adapter.Send(context.Background(), notification.Content{Text: "[주문] 김서연님 주문 #A1001 결제 완료"})
	require.NoError(t, err)
	assert.Equal(t, "[주문] 김서연님 주문 #A1001 결제 완료", got["text"])
}

func TestSend_WebhookError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel_not_found", http.StatusNotFound)
	}))
	defer server.Close()

	adapter := NewAdapter(&config.Config{ChatWebhookURL: server.URL}, zap.NewNop())

	err := adapter.Send(context.Background(), notification.Content{Text: "hi"})
	assert.ErrorContains(t, err, "chat webhook error")
}

func TestSend_NotConfigured(t *testing.T) {
	adapter := NewAdapter(&config.Config{}, zap.NewNop())

	err := adapter.Send(context.Background(), notification.Content{Text: "hi"})
	assert.ErrorContains(t, err, "not configured")
}
