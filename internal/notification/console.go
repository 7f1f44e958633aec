package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ConsoleSender writes messages to the log instead of delivering them. It
// stands in for any provider that is not configured.
type ConsoleSender struct {
	logger *logrus.Logger
}

func NewConsoleSender(logger *logrus.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (c *ConsoleSender) Name() string { return "console" }

func (c *ConsoleSender) Simulated() bool { return true }

func (c *ConsoleSender) SendEmail(_ context.Context, msg EmailMessage) error {
	c.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Text,
	}).Info("Email not sent, SMTP is not configured")
	return nil
}

func (c *ConsoleSender) SendSMS(_ context.Context, to, body string) error {
	c.logger.WithFields(logrus.Fields{
		"to":   to,
		"body": body,
	}).Info("SMS not sent, Twilio is not configured")
	return nil
}
