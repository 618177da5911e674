// Package outbound defines the outbound port interfaces awaymail uses to
// reach the hosting chat server's user, profile and presence data and to
// deliver mail and chat messages.
package outbound

import (
	"context"
	"errors"

	"mellium.im/xmpp/jid"
)

// ErrUserNotFound is returned by UserDirectory when no account exists for a
// localpart.
var ErrUserNotFound = errors.New("user not found")

// Profile (vCard) field names read by the resolver.
const (
	FieldFullName   = "FN"
	FieldGivenName  = "N:GIVEN"
	FieldFamilyName = "N:FAMILY"
	FieldNickname   = "NICKNAME"
	FieldEmail      = "EMAIL"
	FieldEmailUser  = "EMAIL:USERID"
)

// User is an account managed by the hosting server.
type User struct {
	Username string
	Name     string
	Email    string
}

// Locality decides whether an address belongs to a domain managed by the
// hosting server.
type Locality interface {
	IsLocal(addr jid.JID) bool
}

// UserDirectory looks up local accounts.
type UserDirectory interface {
	// GetUser returns the account for localpart.
	// Returns ErrUserNotFound if there is none.
	GetUser(ctx context.Context, localpart string) (*User, error)
}

// PresenceQuery reports a user's current presence as free text,
// e.g. "available", "away", "xa", "dnd".
type PresenceQuery interface {
	GetPresence(ctx context.Context, user *User) (string, error)
}

// ProfileStore reads single vCard fields. A missing field is returned as ""
// with a nil error.
type ProfileStore interface {
	GetProfileField(ctx context.Context, localpart, field string) (string, error)
}

// Directory bundles the lookups an adapter usually provides together.
type Directory interface {
	Locality
	UserDirectory
	PresenceQuery
	ProfileStore
}
