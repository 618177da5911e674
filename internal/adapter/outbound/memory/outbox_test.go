package memory

import (
	"context"
	"errors"
	"testing"

	"mellium.im/xmpp/jid"

	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

func TestOutbox_SendMessage(t *testing.T) {
	ctx := context.Background()
	o := NewOutbox(nil)

	plain := "hello"
	if err := o.SendMessage(ctx, outbound.Mail{ToEmail: "alice@example.com", PlainBody: &plain}); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	mails := o.Mails()
	if len(mails) != 1 {
		t.Fatalf("Mails() len = %d, want 1", len(mails))
	}
	if mails[0].ToEmail != "alice@example.com" || *mails[0].PlainBody != "hello" {
		t.Errorf("stored mail = %+v", mails[0])
	}

	// Mails returns a copy.
	mails[0].ToEmail = "changed"
	if o.Mails()[0].ToEmail != "alice@example.com" {
		t.Error("Mails() exposed internal slice")
	}
}

func TestOutbox_FailWith(t *testing.T) {
	ctx := context.Background()
	o := NewOutbox(nil)
	boom := errors.New("smtp down")

	o.FailWith(boom)
	if err := o.SendMessage(ctx, outbound.Mail{ToEmail: "a@b"}); !errors.Is(err, boom) {
		t.Fatalf("SendMessage() error = %v, want %v", err, boom)
	}
	if len(o.Mails()) != 0 {
		t.Error("failed send was stored")
	}

	o.FailWith(nil)
	if err := o.SendMessage(ctx, outbound.Mail{ToEmail: "a@b"}); err != nil {
		t.Fatalf("SendMessage() after recover error = %v", err)
	}
	if len(o.Mails()) != 1 {
		t.Errorf("Mails() len = %d, want 1", len(o.Mails()))
	}
}

func TestRouter_Route(t *testing.T) {
	ctx := context.Background()
	r := NewRouter(nil)

	to := jid.MustParse("bob@example.com/laptop")
	from := jid.MustParse("alice@example.com")
	first := &xmpp.Message{Type: xmpp.TypeChat, To: &to, From: &from, Body: "one"}
	second := &xmpp.Message{Type: xmpp.TypeChat, To: &to, From: &from, Body: "two"}

	for _, m := range []*xmpp.Message{first, second} {
		if err := r.Route(ctx, m); err != nil {
			t.Fatalf("Route() error = %v", err)
		}
	}

	routed := r.Routed()
	if len(routed) != 2 || routed[0] != first || routed[1] != second {
		t.Fatalf("Routed() = %v, want [first second]", routed)
	}

	boom := errors.New("no session")
	r.FailWith(boom)
	if err := r.Route(ctx, first); !errors.Is(err, boom) {
		t.Errorf("Route() error = %v, want %v", err, boom)
	}
	if len(r.Routed()) != 2 {
		t.Error("failed route was recorded")
	}
}
