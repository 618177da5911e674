package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// Outbox implements outbound.Mailer by keeping every mail in memory.
// Used in dev mode and tests.
type Outbox struct {
	mails  []outbound.Mail
	err    error
	logger *slog.Logger
	mu     sync.Mutex
}

// NewOutbox creates an empty Outbox. logger may be nil.
func NewOutbox(logger *slog.Logger) *Outbox {
	return &Outbox{logger: logger}
}

// SendMessage stores mail, or returns the configured failure.
func (o *Outbox) SendMessage(ctx context.Context, mail outbound.Mail) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return o.err
	}
	o.mails = append(o.mails, mail)
	if o.logger != nil {
		o.logger.Info("mail queued in memory outbox",
			"to", mail.ToEmail,
			"from", mail.FromEmail,
			"subject", mail.Subject,
		)
	}
	return nil
}

// FailWith makes subsequent sends return err. Pass nil to recover.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.err = err
}

// Mails returns a copy of all stored mails.
func (o *Outbox) Mails() []outbound.Mail {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]outbound.Mail, len(o.mails))
	copy(out, o.mails)
	return out
}

// Router implements outbound.Router by recording routed messages.
type Router struct {
	routed []*xmpp.Message
	err    error
	logger *slog.Logger
	mu     sync.Mutex
}

// NewRouter creates an empty recording Router. logger may be nil.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{logger: logger}
}

// Route records msg, or returns the configured failure.
func (r *Router) Route(ctx context.Context, msg *xmpp.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.routed = append(r.routed, msg)
	if r.logger != nil {
		r.logger.Info("message routed in memory",
			"to", xmpp.BareString(msg.To),
			"from", xmpp.BareString(msg.From),
		)
	}
	return nil
}

// FailWith makes subsequent routes return err. Pass nil to recover.
func (r *Router) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.err = err
}

// Routed returns the recorded messages in delivery order.
func (r *Router) Routed() []*xmpp.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*xmpp.Message, len(r.routed))
	copy(out, r.routed)
	return out
}

// Compile-time checks.
var (
	_ outbound.Mailer = (*Outbox)(nil)
	_ outbound.Router = (*Router)(nil)
)
