package gate

import (
	"context"

	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// MessageInterceptor observes every in-flight message before the hosting
// server marks it processed. processed and read carry the flags set by
// earlier stages of the pipeline.
type MessageInterceptor interface {
	// Intercept inspects a message. Returning an error rejects the message;
	// returning nil lets delivery continue.
	Intercept(ctx context.Context, msg *xmpp.Message, processed, read bool) error
}

// InterceptorFunc is an adapter to allow the use of ordinary functions
// as MessageInterceptors.
type InterceptorFunc func(ctx context.Context, msg *xmpp.Message, processed, read bool) error

// Intercept calls f(ctx, msg, processed, read).
func (f InterceptorFunc) Intercept(ctx context.Context, msg *xmpp.Message, processed, read bool) error {
	return f(ctx, msg, processed, read)
}

// Intercept evaluates the message and always lets it through: forwarding to
// e-mail never blocks chat delivery.
func (g *Gate) Intercept(ctx context.Context, msg *xmpp.Message, processed, read bool) error {
	g.Evaluate(ctx, msg, processed, read)
	return nil
}

type decisionKey struct{}

// CaptureDecision returns a context under which Evaluate stores its decision
// in the returned Decision. The Decision stays zero when no gate ran.
func CaptureDecision(ctx context.Context) (context.Context, *Decision) {
	d := &Decision{}
	return context.WithValue(ctx, decisionKey{}, d), d
}

// Compile-time checks.
var (
	_ MessageInterceptor = InterceptorFunc(nil)
	_ MessageInterceptor = (*Gate)(nil)
)
