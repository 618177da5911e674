package resolve

import (
	"context"
	"errors"
	"log/slog"

	"mellium.im/xmpp/jid"

	"github.com/Sentinel-Gate/awaymail/internal/config"
	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
)

// UnknownNamePrefix prefixes the synthesized label for addresses without a
// resolvable name.
const UnknownNamePrefix = "Chat User "

// Identity is the resolved name and e-mail address of one party.
type Identity struct {
	Name  string
	Email string
}

// Resolver looks up display names and e-mail addresses. It keeps no state
// between calls: every lookup reads the directory afresh.
type Resolver struct {
	locality outbound.Locality
	users    outbound.UserDirectory
	profiles outbound.ProfileStore
	settings config.SettingsSource
	logger   *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(
	locality outbound.Locality,
	users outbound.UserDirectory,
	profiles outbound.ProfileStore,
	settings config.SettingsSource,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		locality: locality,
		users:    users,
		profiles: profiles,
		settings: settings,
		logger:   logger,
	}
}

// Resolve returns both name and e-mail for addr using the given settings
// snapshot.
func (r *Resolver) Resolve(ctx context.Context, addr jid.JID, s config.Settings) Identity {
	return Identity{
		Name:  r.ResolveName(ctx, addr),
		Email: r.resolveEmail(ctx, addr, s),
	}
}

// ResolveName returns the best available display name for addr: the vCard
// full name, then given and family name, then nickname, then the account
// name. Non-local or unknown addresses get "Chat User <bare address>".
func (r *Resolver) ResolveName(ctx context.Context, addr jid.JID) string {
	if r.locality.IsLocal(addr) {
		name, ok := r.run(ctx, addr, r.NameChain(addr.Localpart()))
		if ok {
			return name
		}
	}
	return UnknownNamePrefix + addr.Bare().String()
}

// ResolveEmail returns the e-mail address for addr: vCard EMAIL, then
// EMAIL:USERID, then the account e-mail. Otherwise the configured policy
// applies: the bare address when use_address_as_email is set, else the
// default e-mail address.
func (r *Resolver) ResolveEmail(ctx context.Context, addr jid.JID) string {
	return r.resolveEmail(ctx, addr, r.settings.Settings())
}

func (r *Resolver) resolveEmail(ctx context.Context, addr jid.JID, s config.Settings) string {
	if r.locality.IsLocal(addr) {
		email, ok := r.run(ctx, addr, r.EmailChain(addr.Localpart()))
		if ok {
			return email
		}
	}
	if s.UseAddressAsEmail {
		return addr.Bare().String()
	}
	return s.DefaultEmail
}

// NameChain returns the name lookup order for a local user.
func (r *Resolver) NameChain(username string) Chain {
	return Chain{
		r.field(username, outbound.FieldFullName),
		{Name: "vcard:N", Fetch: func(ctx context.Context) (string, error) {
			given, err := r.profiles.GetProfileField(ctx, username, outbound.FieldGivenName)
			if err != nil {
				return "", err
			}
			family, err := r.profiles.GetProfileField(ctx, username, outbound.FieldFamilyName)
			if err != nil {
				return "", err
			}
			return joinName(given, family), nil
		}},
		r.field(username, outbound.FieldNickname),
		{Name: "account:name", Fetch: func(ctx context.Context) (string, error) {
			u, err := r.users.GetUser(ctx, username)
			if err != nil {
				return "", err
			}
			return u.Name, nil
		}},
	}
}

// EmailChain returns the e-mail lookup order for a local user.
func (r *Resolver) EmailChain(username string) Chain {
	return Chain{
		r.field(username, outbound.FieldEmail),
		r.field(username, outbound.FieldEmailUser),
		{Name: "account:email", Fetch: func(ctx context.Context) (string, error) {
			u, err := r.users.GetUser(ctx, username)
			if err != nil {
				return "", err
			}
			return u.Email, nil
		}},
	}
}

func (r *Resolver) field(username, field string) Step {
	return Step{Name: "vcard:" + field, Fetch: func(ctx context.Context) (string, error) {
		return r.profiles.GetProfileField(ctx, username, field)
	}}
}

// run evaluates chain and reports whether it produced a value. Failed
// steps are logged and skipped.
func (r *Resolver) run(ctx context.Context, addr jid.JID, chain Chain) (string, bool) {
	v, step, err := chain.First(ctx)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			r.logger.Debug("unable to find user", "user", addr.Localpart(), "error", err)
		} else {
			r.logger.Warn("directory lookup failed", "user", addr.Localpart(), "error", err)
		}
	}
	if v == "" {
		return "", false
	}
	r.logger.Debug("resolved", "address", addr.Bare().String(), "step", step)
	return v, true
}

// joinName concatenates given and family name with a single space.
// Either half may be empty.
func joinName(given, family string) string {
	switch {
	case given == "":
		return family
	case family == "":
		return given
	default:
		return given + " " + family
	}
}
