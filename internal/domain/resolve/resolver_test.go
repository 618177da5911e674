package resolve

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"mellium.im/xmpp/jid"

	"github.com/Sentinel-Gate/awaymail/internal/config"
	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
)

// mockDirectory is a hand-written directory for resolver tests.
type mockDirectory struct {
	domain   string
	users    map[string]*outbound.User
	fields   map[string]map[string]string
	fieldErr error
	lookups  []string
}

func (m *mockDirectory) IsLocal(addr jid.JID) bool {
	return addr.Domainpart() == m.domain
}

func (m *mockDirectory) GetUser(ctx context.Context, localpart string) (*outbound.User, error) {
	m.lookups = append(m.lookups, "user:"+localpart)
	u, ok := m.users[localpart]
	if !ok {
		return nil, outbound.ErrUserNotFound
	}
	return u, nil
}

func (m *mockDirectory) GetProfileField(ctx context.Context, localpart, field string) (string, error) {
	m.lookups = append(m.lookups, field)
	if m.fieldErr != nil {
		return "", m.fieldErr
	}
	return m.fields[localpart][field], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestResolver(dir *mockDirectory, s config.Settings) *Resolver {
	return NewResolver(dir, dir, dir, config.StaticSettings(s), testLogger())
}

func newDirectory() *mockDirectory {
	return &mockDirectory{
		domain: "example.com",
		users:  map[string]*outbound.User{},
		fields: map[string]map[string]string{},
	}
}

func TestResolveName_FallbackOrder(t *testing.T) {
	full := map[string]string{
		outbound.FieldFullName:   "Robert Jones",
		outbound.FieldGivenName:  "Bob",
		outbound.FieldFamilyName: "Jones",
		outbound.FieldNickname:   "bobby",
	}

	tests := []struct {
		name    string
		drop    []string
		account string
		want    string
	}{
		{"full name wins", nil, "Account Bob", "Robert Jones"},
		{"given and family", []string{outbound.FieldFullName}, "Account Bob", "Bob Jones"},
		{"given only", []string{outbound.FieldFullName, outbound.FieldFamilyName}, "Account Bob", "Bob"},
		{"family only", []string{outbound.FieldFullName, outbound.FieldGivenName}, "Account Bob", "Jones"},
		{"nickname", []string{outbound.FieldFullName, outbound.FieldGivenName, outbound.FieldFamilyName}, "Account Bob", "bobby"},
		{"account name", []string{outbound.FieldFullName, outbound.FieldGivenName, outbound.FieldFamilyName, outbound.FieldNickname}, "Account Bob", "Account Bob"},
		{"synthesized", []string{outbound.FieldFullName, outbound.FieldGivenName, outbound.FieldFamilyName, outbound.FieldNickname}, "", "Chat User bob@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newDirectory()
			fields := map[string]string{}
			for k, v := range full {
				fields[k] = v
			}
			for _, k := range tt.drop {
				delete(fields, k)
			}
			dir.fields["bob"] = fields
			dir.users["bob"] = &outbound.User{Username: "bob", Name: tt.account}

			r := newTestResolver(dir, config.DefaultSettings("example.com"))
			got := r.ResolveName(context.Background(), jid.MustParse("bob@example.com/phone"))
			if got != tt.want {
				t.Errorf("ResolveName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveName_NonLocal(t *testing.T) {
	dir := newDirectory()
	r := newTestResolver(dir, config.DefaultSettings("example.com"))

	got := r.ResolveName(context.Background(), jid.MustParse("carol@elsewhere.org/home"))
	if got != "Chat User carol@elsewhere.org" {
		t.Errorf("ResolveName() = %q", got)
	}
	if len(dir.lookups) != 0 {
		t.Errorf("non-local address must not hit the directory: %v", dir.lookups)
	}
}

func TestResolveName_UnknownUserDegrades(t *testing.T) {
	dir := newDirectory()
	r := newTestResolver(dir, config.DefaultSettings("example.com"))

	got := r.ResolveName(context.Background(), jid.MustParse("ghost@example.com"))
	if got != "Chat User ghost@example.com" {
		t.Errorf("ResolveName() = %q", got)
	}
}

func TestResolveName_ProfileErrorDegrades(t *testing.T) {
	dir := newDirectory()
	dir.fieldErr = errors.New("vcard store offline")
	dir.users["bob"] = &outbound.User{Username: "bob", Name: "Bob"}
	r := newTestResolver(dir, config.DefaultSettings("example.com"))

	got := r.ResolveName(context.Background(), jid.MustParse("bob@example.com"))
	if got != "Bob" {
		t.Errorf("ResolveName() = %q, want account name Bob", got)
	}
}

func TestResolveEmail_ProfileErrorFallsThroughToAccount(t *testing.T) {
	dir := newDirectory()
	dir.fieldErr = errors.New("vcard store offline")
	dir.users["alice"] = &outbound.User{Username: "alice", Email: "alice@corp.example"}
	r := newTestResolver(dir, config.DefaultSettings("example.com"))

	got := r.ResolveEmail(context.Background(), jid.MustParse("alice@example.com"))
	if got != "alice@corp.example" {
		t.Errorf("ResolveEmail() = %q, want account e-mail", got)
	}
	want := []string{outbound.FieldEmail, outbound.FieldEmailUser, "user:alice"}
	if len(dir.lookups) != len(want) {
		t.Fatalf("lookups = %v, want %v", dir.lookups, want)
	}
	for i := range want {
		if dir.lookups[i] != want[i] {
			t.Errorf("lookups[%d] = %q, want %q", i, dir.lookups[i], want[i])
		}
	}
}

func TestResolveName_AllStepsFailSynthesizes(t *testing.T) {
	dir := newDirectory()
	dir.fieldErr = errors.New("vcard store offline")
	r := newTestResolver(dir, config.DefaultSettings("example.com"))

	got := r.ResolveName(context.Background(), jid.MustParse("ghost@example.com"))
	if got != "Chat User ghost@example.com" {
		t.Errorf("ResolveName() = %q", got)
	}
}

func TestResolveEmail_FallbackOrder(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		account string
		want    string
	}{
		{
			name:    "vcard email wins",
			fields:  map[string]string{outbound.FieldEmail: "alice.personal@mail.com", outbound.FieldEmailUser: "alice.work@mail.com"},
			account: "alice@corp.example",
			want:    "alice.personal@mail.com",
		},
		{
			name:    "email userid",
			fields:  map[string]string{outbound.FieldEmailUser: "alice.work@mail.com"},
			account: "alice@corp.example",
			want:    "alice.work@mail.com",
		},
		{
			name:    "account email",
			fields:  map[string]string{},
			account: "alice@corp.example",
			want:    "alice@corp.example",
		},
		{
			name:   "bare address",
			fields: map[string]string{},
			want:   "alice@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newDirectory()
			dir.fields["alice"] = tt.fields
			dir.users["alice"] = &outbound.User{Username: "alice", Email: tt.account}

			r := newTestResolver(dir, config.DefaultSettings("example.com"))
			got := r.ResolveEmail(context.Background(), jid.MustParse("alice@example.com/laptop"))
			if got != tt.want {
				t.Errorf("ResolveEmail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveEmail_NonLocalPolicy(t *testing.T) {
	addr := jid.MustParse("carol@elsewhere.org/home")

	withAddress := config.DefaultSettings("example.com")
	r := newTestResolver(newDirectory(), withAddress)
	if got := r.ResolveEmail(context.Background(), addr); got != "carol@elsewhere.org" {
		t.Errorf("use_address_as_email=true: got %q, want bare address", got)
	}

	withDefault := config.DefaultSettings("example.com")
	withDefault.UseAddressAsEmail = false
	r = newTestResolver(newDirectory(), withDefault)
	if got := r.ResolveEmail(context.Background(), addr); got != "no-reply@example.com" {
		t.Errorf("use_address_as_email=false: got %q, want default", got)
	}
}

func TestResolveEmail_UnknownUserUsesPolicy(t *testing.T) {
	s := config.DefaultSettings("example.com")
	s.UseAddressAsEmail = false
	s.DefaultEmail = "postmaster@example.com"
	r := newTestResolver(newDirectory(), s)

	if got := r.ResolveEmail(context.Background(), jid.MustParse("ghost@example.com")); got != "postmaster@example.com" {
		t.Errorf("ResolveEmail() = %q, want postmaster@example.com", got)
	}
}

func TestResolver_Idempotent(t *testing.T) {
	dir := newDirectory()
	dir.fields["bob"] = map[string]string{outbound.FieldNickname: "bobby", outbound.FieldEmail: "bob@mail.com"}
	dir.users["bob"] = &outbound.User{Username: "bob"}
	r := newTestResolver(dir, config.DefaultSettings("example.com"))
	addr := jid.MustParse("bob@example.com")

	first := r.Resolve(context.Background(), addr, config.DefaultSettings("example.com"))
	second := r.Resolve(context.Background(), addr, config.DefaultSettings("example.com"))
	if first != second {
		t.Errorf("Resolve() not idempotent: %+v vs %+v", first, second)
	}

	// No caching: a profile change is visible on the next call.
	dir.fields["bob"][outbound.FieldFullName] = "Bob Jones"
	if got := r.ResolveName(context.Background(), addr); got != "Bob Jones" {
		t.Errorf("ResolveName() after update = %q, want Bob Jones", got)
	}
}

func TestResolver_LaterStepsNotConsulted(t *testing.T) {
	dir := newDirectory()
	dir.fields["bob"] = map[string]string{outbound.FieldFullName: "Bob Jones"}
	dir.users["bob"] = &outbound.User{Username: "bob", Name: "ignored"}
	r := newTestResolver(dir, config.DefaultSettings("example.com"))

	r.ResolveName(context.Background(), jid.MustParse("bob@example.com"))

	if len(dir.lookups) != 1 || dir.lookups[0] != outbound.FieldFullName {
		t.Errorf("lookups = %v, want only FN", dir.lookups)
	}
}
