// Package gate contains the interception gate: it watches in-flight chat
// messages and, for recipients who are away, forwards the message to their
// e-mail address and confirms this to the sender.
package gate

import (
	"context"
	"time"
)

// Action is the outcome of evaluating one message.
type Action int

const (
	// Passthrough leaves the message alone; no mail, no confirmation.
	Passthrough Action = iota
	// Forward means the message was mailed to the recipient.
	Forward
)

// String returns the string representation of the Action.
func (a Action) String() string {
	switch a {
	case Passthrough:
		return "passthrough"
	case Forward:
		return "forward"
	default:
		return "unknown"
	}
}

// Reason explains a Decision.
type Reason string

// Decision reasons, in the order the rules are checked.
const (
	ReasonAlreadyProcessed Reason = "already_processed"
	ReasonAlreadyRead      Reason = "already_read"
	ReasonNoRecipient      Reason = "no_recipient"
	ReasonNotChat          Reason = "not_chat"
	ReasonNotLocal         Reason = "not_local"
	ReasonUnknownUser      Reason = "unknown_user"
	ReasonLookupFailed     Reason = "lookup_failed"
	ReasonNotAway          Reason = "not_away"
	ReasonEmptyBody        Reason = "empty_body"
	ReasonNoSender         Reason = "no_sender"
	ReasonFiltered         Reason = "filtered"
	ReasonFilterError      Reason = "filter_error"
	ReasonMailFailed       Reason = "mail_failed"
	ReasonRouteFailed      Reason = "route_failed"
	ReasonInternalError    Reason = "internal_error"
	ReasonForwarded        Reason = "forwarded"
)

// Decision is what the gate did with a message and why.
type Decision struct {
	Action Action
	Reason Reason
}

// Forwarded reports whether the message was mailed.
func (d Decision) Forwarded() bool {
	return d.Action == Forward
}

// FilterInput is what a forwarding filter can inspect.
type FilterInput struct {
	From     string
	To       string
	Subject  string
	Body     string
	Presence string
}

// Filter decides whether a qualifying message is forwarded. expr is the
// configured filter expression; implementations treat "" as "match".
type Filter interface {
	Match(ctx context.Context, expr string, in FilterInput) (bool, error)
}

// FilterFunc is an adapter to allow the use of ordinary functions as Filters.
type FilterFunc func(ctx context.Context, expr string, in FilterInput) (bool, error)

// Match calls f(ctx, expr, in).
func (f FilterFunc) Match(ctx context.Context, expr string, in FilterInput) (bool, error) {
	return f(ctx, expr, in)
}

// Recorder observes decisions. Satisfied by service.StatsService and the
// Prometheus metrics adapter.
type Recorder interface {
	RecordDecision(d Decision, elapsed time.Duration)
}
