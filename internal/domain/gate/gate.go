package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sentinel-Gate/awaymail/internal/config"
	"github.com/Sentinel-Gate/awaymail/internal/domain/notify"
	"github.com/Sentinel-Gate/awaymail/internal/domain/resolve"
	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// tracerName is the instrumentation scope of gate spans.
const tracerName = "github.com/Sentinel-Gate/awaymail/internal/domain/gate"

// Gate decides, per message, whether to forward it to e-mail.
//
// A Gate holds no per-message state: all working data lives in a single
// Evaluate call, so it is safe for concurrent use by any number of
// dispatching goroutines.
type Gate struct {
	directory outbound.Directory
	resolver  *resolve.Resolver
	mailer    outbound.Mailer
	router    outbound.Router
	settings  config.SettingsSource
	filter    Filter     // optional, may be nil
	recorders []Recorder // optional
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithFilter sets the forwarding filter used when settings carry a filter
// expression.
func WithFilter(f Filter) Option {
	return func(g *Gate) {
		g.filter = f
	}
}

// WithRecorder adds a decision recorder. May be given more than once.
func WithRecorder(r Recorder) Option {
	return func(g *Gate) {
		if r != nil {
			g.recorders = append(g.recorders, r)
		}
	}
}

// WithTracer overrides the tracer. Defaults to the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(g *Gate) {
		g.tracer = t
	}
}

// New creates a Gate.
func New(
	directory outbound.Directory,
	mailer outbound.Mailer,
	router outbound.Router,
	settings config.SettingsSource,
	logger *slog.Logger,
	opts ...Option,
) *Gate {
	g := &Gate{
		directory: directory,
		resolver:  resolve.NewResolver(directory, directory, directory, settings, logger),
		mailer:    mailer,
		router:    router,
		settings:  settings,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(tracerName)
	}
	return g
}

// Resolver returns the resolver the gate uses for both parties.
func (g *Gate) Resolver() *resolve.Resolver {
	return g.resolver
}

// IsAway reports whether a free-text presence status means "away".
// The match is a case-insensitive substring test, so "xa" or "dnd" do not
// qualify while "Away", "away" and "I'm away from my desk" do.
func IsAway(status string) bool {
	return strings.Contains(strings.ToLower(status), "away")
}

// Evaluate applies the forwarding rules to msg and, when all pass, mails
// the body to the recipient and routes a confirmation to the sender.
//
// processed and read are the flags an earlier pipeline stage set on the
// message; either one makes the message ineligible, which keeps forwarding
// at most once per message. Evaluate never returns an error and never
// panics: failures are logged and reported as a Passthrough decision.
func (g *Gate) Evaluate(ctx context.Context, msg *xmpp.Message, processed, read bool) (d Decision) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "awaymail.evaluate", trace.WithSpanKind(trace.SpanKindInternal))

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("panic during interception", "panic", r)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			d = Decision{Action: Passthrough, Reason: ReasonInternalError}
		}
		span.SetAttributes(
			attribute.String("awaymail.action", d.Action.String()),
			attribute.String("awaymail.reason", string(d.Reason)),
		)
		span.End()

		elapsed := time.Since(start)
		for _, r := range g.recorders {
			r.RecordDecision(d, elapsed)
		}
		if p, ok := ctx.Value(decisionKey{}).(*Decision); ok {
			*p = d
		}
	}()

	// Read one snapshot so a concurrent reload cannot mix settings.
	s := g.settings.Settings()

	if reason, ok := precheck(msg, processed, read); !ok {
		return pass(reason)
	}
	if !g.directory.IsLocal(*msg.To) {
		return pass(ReasonNotLocal)
	}

	user, err := g.directory.GetUser(ctx, msg.To.Localpart())
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			g.logger.Debug("unable to determine if an email should be sent to a user that is away, as the user cannot be found",
				"to", msg.To.String(),
				"from", xmpp.BareString(msg.From),
				"error", err,
			)
			return pass(ReasonUnknownUser)
		}
		g.logger.Warn("user lookup failed", "to", msg.To.String(), "error", err)
		return pass(ReasonLookupFailed)
	}

	status, err := g.directory.GetPresence(ctx, user)
	if err != nil {
		g.logger.Warn("presence lookup failed", "user", user.Username, "error", err)
		return pass(ReasonLookupFailed)
	}
	if !IsAway(status) {
		return pass(ReasonNotAway)
	}

	if msg.Body == "" {
		return pass(ReasonEmptyBody)
	}
	if msg.From == nil {
		return pass(ReasonNoSender)
	}

	if s.Filter != "" && g.filter != nil {
		matched, err := g.filter.Match(ctx, s.Filter, FilterInput{
			From:     msg.From.Bare().String(),
			To:       msg.To.Bare().String(),
			Subject:  msg.Subject,
			Body:     msg.Body,
			Presence: status,
		})
		if err != nil {
			g.logger.Warn("forwarding filter failed, not forwarding", "error", err)
			return pass(ReasonFilterError)
		}
		if !matched {
			return pass(ReasonFiltered)
		}
	}

	return g.forward(ctx, msg, s)
}

// precheck applies the rules that need only the message itself.
func precheck(msg *xmpp.Message, processed, read bool) (Reason, bool) {
	switch {
	case processed:
		return ReasonAlreadyProcessed, false
	case read:
		return ReasonAlreadyRead, false
	case !msg.HasRecipient():
		return ReasonNoRecipient, false
	case !msg.IsChat():
		return ReasonNotChat, false
	}
	return "", true
}

// forward mails the message and confirms to the sender.
func (g *Gate) forward(ctx context.Context, msg *xmpp.Message, s config.Settings) Decision {
	recipient := g.resolver.Resolve(ctx, *msg.To, s)
	sender := g.resolver.Resolve(ctx, *msg.From, s)

	mail := BuildMail(recipient, sender, s, msg.Body)
	if err := g.mailer.SendMessage(ctx, mail); err != nil {
		g.logger.Warn("failed to mail message for away user",
			"to", msg.To.String(),
			"email", recipient.Email,
			"error", err,
		)
		return pass(ReasonMailFailed)
	}

	confirmation := notify.Compose(*msg.From, *msg.To, recipient.Email, s.ShowEmail)
	if err := g.router.Route(ctx, confirmation); err != nil {
		g.logger.Warn("failed to route away confirmation",
			"to", xmpp.BareString(confirmation.To),
			"error", err,
		)
		return Decision{Action: Forward, Reason: ReasonRouteFailed}
	}

	g.logger.Debug("sent an email to away user",
		"to", msg.To.String(),
		"from", msg.From.String(),
		"email", recipient.Email,
	)
	return Decision{Action: Forward, Reason: ReasonForwarded}
}

func pass(reason Reason) Decision {
	return Decision{Action: Passthrough, Reason: reason}
}
