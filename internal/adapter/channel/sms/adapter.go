package sms

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
	"github.com/SeopE9611/sub010-backend/internal/renderer"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Adapter delivers SMS text through an HTTP gateway. It is gated by an
// enable flag and an allow-list so a non-production deployment can never
// text real customers; skipped sends are logged with masked numbers and
// reported as success.
type Adapter struct {
	http       *http.Client
	gatewayURL string
	apiKey     string
	sender     string
	enabled    bool
	allow      map[string]struct{}
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewAdapter(cfg *config.Config, logger *zap.Logger) *Adapter {
	allow := make(map[string]struct{}, len(cfg.SMSAllowList))
	for _, number := range cfg.SMSAllowList {
		allow[renderer.NormalizePhone(number)] = struct{}{}
	}

	perMin := cfg.SMSRatePerMin
	if perMin <= 0 {
		perMin = 60
	}

	return &Adapter{
		http:       &http.Client{Timeout: 10 * time.Second},
		gatewayURL: cfg.SMSGatewayURL,
		apiKey:     cfg.SMSAPIKey,
		sender:     cfg.SMSSender,
		enabled:    cfg.SMSEnabled,
		allow:      allow,
		limiter:    rate.NewLimiter(rate.Limit(perMin)/60, 5),
		logger:     logger,
	}
}

func (a *Adapter) Channel() notification.Channel {
	return notification.ChannelSMS
}

func (a *Adapter) Send(ctx context.Context, content notification.Content) error {
	receiver := renderer.NormalizePhone(content.To)
	if receiver == "" {
		return fmt.Errorf("sms content has no recipient")
	}
	masked := renderer.MaskPhone(receiver)

	if !a.enabled {
		a.logger.Info("sms_skipped_disabled", zap.String("to", masked))
		return nil
	}
	if len(a.allow) > 0 {
		if _, ok := a.allow[receiver]; !ok {
			a.logger.Info("sms_skipped_not_allowed", zap.String("to", masked))
			return nil
		}
	}
	if a.gatewayURL == "" {
		return fmt.Errorf("sms gateway not configured")
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sms rate limit: %w", err)
	}

	body, err := json.Marshal(map[string]string{
		"key":      a.apiKey,
		"sender":   a.sender,
		"receiver": receiver,
		"msg":      content.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("sms gateway error: %s", resp.Status)
		}
		return fmt.Errorf("sms gateway error: %s: %s", resp.Status, string(respBody))
	}

	a.logger.Debug("sms_sent", zap.String("to", masked))
	return nil
}
