package email

import (
	"context"
	"fmt"

	"github.com/SeopE9611/sub010-backend/internal/config"
	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Adapter delivers rendered email content through the configured SMTP relay.
type Adapter struct {
	client *mail.Client
	from   string
	bcc    []string
	logger *zap.Logger
}

func NewAdapter(cfg *config.Config, logger *zap.Logger) (*Adapter, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &Adapter{
		client: client,
		from:   cfg.SMTPFrom,
		bcc:    cfg.SMTPBCC,
		logger: logger,
	}, nil
}

func (a *Adapter) Channel() notification.Channel {
	return notification.ChannelEmail
}

func (a *Adapter) Send(ctx context.Context, content notification.Content) error {
	if content.To == "" {
		return fmt.Errorf("email content has no recipient")
	}

	msg := mail.NewMsg()
	if err := msg.From(a.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(content.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	bcc := append(append([]string{}, a.bcc...), content.BCC...)
	if len(bcc) > 0 {
		if err := msg.Bcc(bcc...); err != nil {
			return fmt.Errorf("set bcc: %w", err)
		}
	}
	msg.Subject(content.Subject)
	msg.SetBodyString(mail.TypeTextHTML, content.HTML)

	if err := a.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	a.logger.Debug("email_sent", zap.String("to", content.To), zap.String("subject", content.Subject))
	return nil
}
