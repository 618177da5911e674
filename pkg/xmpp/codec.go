package xmpp

import (
	"encoding/json"
	"fmt"
	"time"

	"mellium.im/xmpp/jid"
)

// wireMessage is the JSON form of a Message used between the hosting server
// and awaymail.
type wireMessage struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

// EncodeMessage serializes a message to its JSON wire format.
func EncodeMessage(msg *Message) ([]byte, error) {
	w := wireMessage{
		ID:      msg.ID,
		Type:    string(msg.Type),
		Subject: msg.Subject,
		Body:    msg.Body,
	}
	if msg.From != nil {
		w.From = msg.From.String()
	}
	if msg.To != nil {
		w.To = msg.To.String()
	}
	return json.Marshal(w)
}

// DecodeMessage parses the JSON wire format into a Message stamped with the
// current time. Missing from/to addresses decode to nil; malformed ones are
// an error.
func DecodeMessage(data []byte) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	msg := &Message{
		ID:        w.ID,
		Type:      MessageType(w.Type),
		Subject:   w.Subject,
		Body:      w.Body,
		Timestamp: time.Now(),
	}
	if msg.Type == "" {
		msg.Type = TypeNormal
	}

	var err error
	if msg.From, err = parseOptional(w.From); err != nil {
		return nil, fmt.Errorf("decode message: from: %w", err)
	}
	if msg.To, err = parseOptional(w.To); err != nil {
		return nil, fmt.Errorf("decode message: to: %w", err)
	}
	return msg, nil
}

func parseOptional(s string) (*jid.JID, error) {
	if s == "" {
		return nil, nil
	}
	j, err := jid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
