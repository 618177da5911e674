// Package notify builds the confirmation message returned to the sender of
// a forwarded chat message.
package notify

import (
	"time"

	"github.com/google/uuid"
	"mellium.im/xmpp/jid"

	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// Subject is the subject of every confirmation.
const Subject = "I'm away"

const awayBody = "I'm currently away. Your message has been forwarded to my email address"

// Compose returns a confirmation addressed to the bare address of to (the
// original sender) from the bare address of from (the away user). When
// showEmail is set the body names recipientEmail.
func Compose(to, from jid.JID, recipientEmail string, showEmail bool) *xmpp.Message {
	toBare := to.Bare()
	fromBare := from.Bare()

	body := awayBody + "."
	if showEmail {
		body = awayBody + "  (" + recipientEmail + ")."
	}

	return &xmpp.Message{
		ID:        uuid.NewString(),
		Type:      xmpp.TypeChat,
		To:        &toBare,
		From:      &fromBare,
		Subject:   Subject,
		Body:      body,
		Timestamp: time.Now(),
	}
}
