// Package smtp delivers forwarded chat messages as e-mail over SMTP.
package smtp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
)

// ErrNoBody is returned when a mail carries neither a plain nor an HTML body.
var ErrNoBody = errors.New("send mail: no body")

// SendFunc submits a composed message. It matches go-smtp's SendMail.
type SendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// Config configures the SMTP mailer.
type Config struct {
	// Addr is the submission server as host:port.
	Addr string
	// Username and Password enable PLAIN authentication when Username is set.
	Username string
	Password string
	// Envelope is the MAIL FROM address. The message From header carries the
	// chat sender's resolved address.
	Envelope string
}

// Mailer implements outbound.Mailer over SMTP.
type Mailer struct {
	cfg    Config
	send   SendFunc
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSendFunc replaces the SMTP submission function.
func WithSendFunc(fn SendFunc) Option {
	return func(m *Mailer) { m.send = fn }
}

// WithClock sets the time source for the Date header.
func WithClock(now func() time.Time) Option {
	return func(m *Mailer) { m.now = now }
}

// NewMailer creates an SMTP mailer.
func NewMailer(cfg Config, logger *slog.Logger, opts ...Option) *Mailer {
	m := &Mailer{
		cfg:    cfg,
		send:   gosmtp.SendMail,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendMessage composes a MIME message for mail and submits it.
func (m *Mailer) SendMessage(ctx context.Context, msg outbound.Mail) error {
	if msg.ToEmail == "" {
		return errors.New("send mail: empty recipient address")
	}
	if msg.PlainBody == nil && msg.HTMLBody == nil {
		return ErrNoBody
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	var buf bytes.Buffer
	if err := m.compose(&buf, msg); err != nil {
		return fmt.Errorf("send mail: compose: %w", err)
	}

	envelope := m.cfg.Envelope
	if envelope == "" {
		envelope = msg.FromEmail
	}

	var auth sasl.Client
	if m.cfg.Username != "" {
		auth = sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)
	}

	if err := m.send(m.cfg.Addr, auth, envelope, []string{msg.ToEmail}, &buf); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Debug("mail submitted",
		"to", msg.ToEmail,
		"from", msg.FromEmail,
		"server", m.cfg.Addr,
	)
	return nil
}

func (m *Mailer) compose(w io.Writer, msg outbound.Mail) error {
	var h mail.Header
	h.SetDate(m.now())
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{{Name: msg.FromName, Address: msg.FromEmail}})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.ToEmail}})
	if err := h.GenerateMessageID(); err != nil {
		return err
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return err
	}
	if msg.PlainBody != nil {
		if err := writePart(tw, "text/plain", *msg.PlainBody); err != nil {
			return err
		}
	}
	if msg.HTMLBody != nil {
		if err := writePart(tw, "text/html", *msg.HTMLBody); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return mw.Close()
}

func writePart(tw *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	pw, err := tw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return err
	}
	return pw.Close()
}

// Compile-time check that Mailer implements outbound.Mailer.
var _ outbound.Mailer = (*Mailer)(nil)
