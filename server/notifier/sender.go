// Package notifier delivers match and resolution notifications to item
// reporters.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Sender delivers one rendered notification to a contact address.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
	Name() string
}

// SMTPConfig holds email delivery configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers notifications over SMTP.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates a new SMTP sender.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{
		config: config,
		logger: slog.Default(),
	}
}

// Send delivers one email.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}
	if err := smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg.String())); err != nil {
		s.logger.Error("smtp delivery failed", "host", s.config.Host, "error", err)
		return errors.Wrap(err, "failed to send email")
	}

	s.logger.Debug("email notification sent", "to", to, "subject", subject)
	return nil
}

// Name returns the sender name.
func (*SMTPSender) Name() string {
	return "smtp"
}

// WebhookConfig holds webhook delivery configuration.
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
	Headers map[string]string
}

// WebhookSender posts notifications to an HTTP endpoint, for deployments
// that bridge delivery through an external messenger.
type WebhookSender struct {
	config     WebhookConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// WebhookPayload represents the webhook request body.
type WebhookPayload struct {
	Event     string    `json:"event"`
	Contact   string    `json:"contact"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewWebhookSender creates a new webhook sender.
func NewWebhookSender(config WebhookConfig) *WebhookSender {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &WebhookSender{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: slog.Default(),
	}
}

// Send posts one notification to the configured endpoint.
func (s *WebhookSender) Send(ctx context.Context, to, subject, body string) error {
	payload := WebhookPayload{
		Event:     "match.notification",
		Contact:   to,
		Subject:   subject,
		Body:      body,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")
	if s.config.Secret != "" {
		req.Header.Set("X-Webhook-Secret", s.config.Secret)
	}
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("webhook request failed", "url", s.config.URL, "error", err)
		return errors.Wrap(err, "webhook request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.Error("webhook returned error",
			"url", s.config.URL,
			"status", resp.StatusCode,
			"response", string(respBody),
		)
		return errors.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.logger.Debug("webhook notification sent", "url", s.config.URL, "status", resp.StatusCode)
	return nil
}

// Name returns the sender name.
func (*WebhookSender) Name() string {
	return "webhook"
}

// LogSender records deliveries to the log instead of sending them. Used
// when no delivery backend is configured, e.g. in development mode.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new log-only sender.
func NewLogSender() *LogSender {
	return &LogSender{logger: slog.Default()}
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("notification (log-only delivery)",
		"to", to,
		"subject", subject,
		"body_length", len(body),
	)
	return nil
}

// Name returns the sender name.
func (*LogSender) Name() string {
	return "log"
}
