// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"strings"
	"sync"

	"mellium.im/xmpp/jid"

	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
)

// Directory implements outbound.Directory with in-memory maps.
// Thread-safe for concurrent access. For development/testing only.
type Directory struct {
	domains  map[string]struct{}
	users    map[string]*outbound.User    // username -> user
	vcards   map[string]map[string]string // username -> field -> value
	presence map[string]string            // username -> status
	mu       sync.RWMutex
}

// NewDirectory creates a directory that treats the given domains as local.
func NewDirectory(domains ...string) *Directory {
	d := &Directory{
		domains:  make(map[string]struct{}, len(domains)),
		users:    make(map[string]*outbound.User),
		vcards:   make(map[string]map[string]string),
		presence: make(map[string]string),
	}
	for _, domain := range domains {
		d.domains[strings.ToLower(domain)] = struct{}{}
	}
	return d
}

// IsLocal reports whether addr's domain is served locally.
func (d *Directory) IsLocal(addr jid.JID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.domains[strings.ToLower(addr.Domainpart())]
	return ok
}

// GetUser returns a copy of the account for localpart.
// Returns outbound.ErrUserNotFound if it doesn't exist.
func (d *Directory) GetUser(ctx context.Context, localpart string) (*outbound.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[localpart]
	if !ok {
		return nil, outbound.ErrUserNotFound
	}
	userCopy := *u
	return &userCopy, nil
}

// GetPresence returns the user's status, "unavailable" when none was set.
func (d *Directory) GetPresence(ctx context.Context, user *outbound.User) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status, ok := d.presence[user.Username]
	if !ok {
		return "unavailable", nil
	}
	return status, nil
}

// GetProfileField returns a vCard field or "" when it is not set.
func (d *Directory) GetProfileField(ctx context.Context, localpart, field string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.vcards[localpart][field], nil
}

// PutUser adds or replaces an account.
func (d *Directory) PutUser(user outbound.User) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users[user.Username] = &user
}

// RemoveUser deletes an account together with its vCard and presence.
func (d *Directory) RemoveUser(username string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.users, username)
	delete(d.vcards, username)
	delete(d.presence, username)
}

// SetProfileField sets a vCard field. An empty value clears it.
func (d *Directory) SetProfileField(username, field, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if value == "" {
		delete(d.vcards[username], field)
		return
	}
	if d.vcards[username] == nil {
		d.vcards[username] = make(map[string]string)
	}
	d.vcards[username][field] = value
}

// SetPresence records the user's current status.
func (d *Directory) SetPresence(username, status string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.presence[username] = status
}

// Size returns the number of accounts.
func (d *Directory) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.users)
}

// Compile-time check that Directory implements outbound.Directory.
var _ outbound.Directory = (*Directory)(nil)
