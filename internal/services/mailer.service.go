package services

import (
	"context"
	"fmt"
	"time"

	"fieldvisit/config"
	"fieldvisit/internal/logger"

	"github.com/go-resty/resty/v2"
)

// MailSender delivers one email. Implementations must treat delivery as
// best-effort; callers record failures and move on.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailerService posts messages to an HTTP mail relay. When no relay is
// configured, delivery is disabled and Send reports that as an error so
// the notification row keeps its failure detail.
type MailerService struct {
	client *resty.Client
	config config.Config
	log    logger.Logger
}

type mailRelayRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func NewMailerService(config config.Config) *MailerService {
	client := resty.New().
		SetBaseURL(config.MailRelayURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	if config.MailRelayAPIKey != "" {
		client.SetHeader("Authorization", "Bearer "+config.MailRelayAPIKey)
	}

	return &MailerService{
		client: client,
		config: config,
		log:    logger.New("MailerService"),
	}
}

func (m *MailerService) Send(ctx context.Context, to, subject, body string) error {
	log := m.log.Function("Send")

	if m.config.MailRelayURL == "" {
		return fmt.Errorf("mail relay is not configured")
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(mailRelayRequest{
			From:    m.config.MailFromAddress,
			To:      to,
			Subject: subject,
			Body:    body,
		}).
		Post("/messages")
	if err != nil {
		return log.Err("failed to post message to mail relay", err, "to", to)
	}

	if resp.IsError() {
		return log.Error(
			"mail relay rejected message",
			"to", to,
			"status", resp.StatusCode(),
		)
	}

	return nil
}
