// Package notification delivers verification codes, reset links and
// confirmations over email and SMS providers.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/compreg/compreg/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

const (
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusSimulated = "simulated"
)

const (
	PurposeVerification      = "verification"
	PurposePasswordReset     = "password_reset"
	PurposeCompanyRegistered = "company_registered"
)

const defaultRetention = 30 * 24 * time.Hour

const (
	defaultCodeTTL = 10 * time.Minute
	defaultLinkTTL = 15 * time.Minute
)

// Result describes one delivery attempt. Err is set only when Status is
// StatusFailed.
type Result struct {
	Channel  Channel
	Status   string
	Provider string
	Err      error
}

func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Name() string
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type SMSSender interface {
	Name() string
	SendSMS(ctx context.Context, to, body string) error
}

// Recorder persists delivery attempts.
type Recorder interface {
	Record(ctx context.Context, record models.DeliveryRecord) error
}

// Observer counts delivery outcomes.
type Observer interface {
	RecordDelivery(channel, status string)
}

// simulator is implemented by providers that only pretend to deliver.
type simulator interface {
	Simulated() bool
}

type NopRecorder struct{}

func (NopRecorder) Record(context.Context, models.DeliveryRecord) error { return nil }

type nopObserver struct{}

func (nopObserver) RecordDelivery(string, string) {}

type Dispatcher struct {
	email     EmailSender
	sms       SMSSender
	recorder  Recorder
	observer  Observer
	retention time.Duration
	codeTTL   time.Duration
	linkTTL   time.Duration
	logger    *logrus.Logger
	now       func() time.Time
}

// NewDispatcher wires the providers. A nil recorder or observer is replaced
// by a no-op.
func NewDispatcher(email EmailSender, sms SMSSender, recorder Recorder, observer Observer, logger *logrus.Logger) *Dispatcher {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if observer == nil {
		observer = nopObserver{}
	}

	return &Dispatcher{
		email:     email,
		sms:       sms,
		recorder:  recorder,
		observer:  observer,
		retention: defaultRetention,
		codeTTL:   defaultCodeTTL,
		linkTTL:   defaultLinkTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// WithExpiries sets the code and reset-link lifetimes quoted in emails.
func (d *Dispatcher) WithExpiries(code, link time.Duration) *Dispatcher {
	d.codeTTL = code
	d.linkTTL = link
	return d
}

// SendCode delivers a verification code over the given channel.
func (d *Dispatcher) SendCode(ctx context.Context, channel Channel, destination, code string) Result {
	switch channel {
	case ChannelEmail:
		msg := verificationEmail(destination, code, d.codeTTL)
		return d.deliver(ctx, ChannelEmail, PurposeVerification, destination, d.email.Name(), d.email, func() error {
			return d.email.SendEmail(ctx, msg)
		})
	case ChannelSMS:
		body := verificationSMS(code)
		return d.deliver(ctx, ChannelSMS, PurposeVerification, destination, d.sms.Name(), d.sms, func() error {
			return d.sms.SendSMS(ctx, destination, body)
		})
	default:
		return Result{Channel: channel, Status: StatusFailed, Err: fmt.Errorf("unsupported channel %q", channel)}
	}
}

// SendLink emails a password reset link.
func (d *Dispatcher) SendLink(ctx context.Context, destination, link string) Result {
	msg := passwordResetEmail(destination, link, d.linkTTL)
	return d.deliver(ctx, ChannelEmail, PurposePasswordReset, destination, d.email.Name(), d.email, func() error {
		return d.email.SendEmail(ctx, msg)
	})
}

func (d *Dispatcher) SendCompanyConfirmation(ctx context.Context, destination, companyName string) Result {
	msg := companyRegisteredEmail(destination, companyName)
	return d.deliver(ctx, ChannelEmail, PurposeCompanyRegistered, destination, d.email.Name(), d.email, func() error {
		return d.email.SendEmail(ctx, msg)
	})
}

func (d *Dispatcher) deliver(ctx context.Context, channel Channel, purpose, destination, provider string, sender any, send func() error) (res Result) {
	res = Result{Channel: channel, Provider: provider, Status: StatusSent}
	if s, ok := sender.(simulator); ok && s.Simulated() {
		res.Status = StatusSimulated
	}

	defer func() {
		if rec := recover(); rec != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("provider panic: %v", rec)
		}
		d.finish(ctx, purpose, destination, res)
	}()

	if err := send(); err != nil {
		res.Status = StatusFailed
		res.Err = err
	}

	return res
}

func (d *Dispatcher) finish(ctx context.Context, purpose, destination string, res Result) {
	masked := MaskDestination(res.Channel, destination)
	entry := d.logger.WithFields(logrus.Fields{
		"channel":     res.Channel,
		"purpose":     purpose,
		"provider":    res.Provider,
		"destination": masked,
		"status":      res.Status,
	})
	if res.Err != nil {
		entry.WithError(res.Err).Warn("Notification delivery failed")
	} else {
		entry.Info("Notification delivered")
	}

	d.observer.RecordDelivery(string(res.Channel), res.Status)

	now := d.now()
	record := models.DeliveryRecord{
		ID:          uuid.New().String(),
		Channel:     string(res.Channel),
		Purpose:     purpose,
		Destination: masked,
		Status:      res.Status,
		Provider:    res.Provider,
		CreatedAt:   now,
		ExpiresAt:   now.Add(d.retention),
	}
	if res.Err != nil {
		record.Error = res.Err.Error()
	}

	if err := d.recorder.Record(context.WithoutCancel(ctx), record); err != nil {
		d.logger.WithError(err).Warn("Failed to record notification delivery")
	}
}
