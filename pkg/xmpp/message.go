// Package xmpp provides the chat message and address types that flow
// through the awaymail interception gate.
package xmpp

import (
	"time"

	"mellium.im/xmpp/jid"
)

// MessageType is the XMPP message type attribute.
type MessageType string

const (
	// TypeChat is a one-to-one chat message. Only chat messages are forwarded.
	TypeChat MessageType = "chat"
	// TypeGroupChat is a multi-user chat message.
	TypeGroupChat MessageType = "groupchat"
	// TypeNormal is a standalone message outside a conversation.
	TypeNormal MessageType = "normal"
	// TypeHeadline is an alert or broadcast that expects no reply.
	TypeHeadline MessageType = "headline"
	// TypeError reports an error for a previously sent message.
	TypeError MessageType = "error"
)

// String returns the wire value of the type.
func (t MessageType) String() string {
	return string(t)
}

// Message is a directed unit of chat content.
//
// The gate treats inbound messages as immutable: it reads them and builds new
// messages, it never modifies one it was handed.
type Message struct {
	// ID is the stanza id, may be empty.
	ID string

	// Type is the message type. An empty type is treated as normal.
	Type MessageType

	// From is the sender address. Nil for server-originated messages.
	From *jid.JID

	// To is the recipient address. Nil when the stanza has no recipient.
	To *jid.JID

	// Subject is the optional subject line.
	Subject string

	// Body is the optional message text.
	Body string

	// Timestamp records when the message entered the gate.
	Timestamp time.Time
}

// HasRecipient reports whether the message carries a recipient address.
func (m *Message) HasRecipient() bool {
	return m != nil && m.To != nil
}

// IsChat reports whether the message is a one-to-one chat message.
func (m *Message) IsChat() bool {
	return m != nil && m.Type == TypeChat
}

// BareString returns the bare form of addr as a string, or "" for nil.
func BareString(addr *jid.JID) string {
	if addr == nil {
		return ""
	}
	return addr.Bare().String()
}
