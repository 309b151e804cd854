package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SeopE9611/sub010-backend/internal/config"
	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"go.uber.org/zap"
)

// Adapter posts rendered text to the back-office chat webhook
// (Slack-compatible payload shape).
type Adapter struct {
	http       *http.Client
	webhookURL string
	logger     *zap.Logger
}

func NewAdapter(cfg *config.Config, logger *zap.Logger) *Adapter {
	return &Adapter{
		http:       &http.Client{Timeout: 10 * time.Second},
		webhookURL: cfg.ChatWebhookURL,
		logger:     logger,
	}
}

func (a *Adapter) Channel() notification.Channel {
	return notification.ChannelChat
}

func (a *Adapter) Send(ctx context.Context, content notification.Content) error {
	if a.webhookURL == "" {
		return fmt.Errorf("chat webhook not configured")
	}

	body, err := json.Marshal(map[string]string{"text": content.Text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("chat webhook error: %s", resp.Status)
		}
		return fmt.Errorf("chat webhook error: %s: %s", resp.Status, string(respBody))
	}

	a.logger.Debug("chat_sent")
	return nil
}
