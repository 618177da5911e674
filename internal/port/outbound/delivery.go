package outbound

import (
	"context"

	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// Mail is one outbound e-mail. A nil body variant is not sent.
type Mail struct {
	ToName    string
	ToEmail   string
	FromName  string
	FromEmail string
	Subject   string
	PlainBody *string
	HTMLBody  *string
}

// Mailer delivers e-mail. Delivery guarantees are the adapter's concern.
type Mailer interface {
	SendMessage(ctx context.Context, mail Mail) error
}

// Router delivers a server-originated chat message to a local session.
type Router interface {
	Route(ctx context.Context, msg *xmpp.Message) error
}
