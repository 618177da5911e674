package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/emersion/go-sasl"
	"mellium.im/xmpp/jid"

	"github.com/Sentinel-Gate/awaymail/internal/adapter/outbound/sqlite"
	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// smtpCapture records every submission made through the SMTP mailer.
type smtpCapture struct {
	mu   sync.Mutex
	rcpt [][]string
	raw  []string
}

func (c *smtpCapture) send(_ string, _ sasl.Client, _ string, to []string, r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rcpt = append(c.rcpt, to)
	c.raw = append(c.raw, string(body))
	return nil
}

func (c *smtpCapture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.raw)
}

// seedDirectory opens an in-memory sqlite directory with alice away and bob
// available on example.com.
func seedDirectory(t *testing.T) *sqlite.Directory {
	t.Helper()
	ctx := context.Background()

	dir, err := sqlite.Open(ctx, ":memory:", "example.com")
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = dir.Close() })

	steps := []error{
		dir.PutUser(ctx, outbound.User{Username: "alice", Name: "Alice Account", Email: "alice@corp.example"}),
		dir.SetProfileField(ctx, "alice", outbound.FieldGivenName, "Alice"),
		dir.SetProfileField(ctx, "alice", outbound.FieldFamilyName, "Smith"),
		dir.SetPresence(ctx, "alice", "Away"),
		dir.PutUser(ctx, outbound.User{Username: "bob"}),
		dir.SetProfileField(ctx, "bob", outbound.FieldNickname, "bobby"),
		dir.SetPresence(ctx, "bob", "available"),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return dir
}

func mustJID(t *testing.T, s string) jid.JID {
	t.Helper()
	j, err := jid.Parse(s)
	if err != nil {
		t.Fatalf("jid.Parse(%q) error = %v", s, err)
	}
	return j
}
