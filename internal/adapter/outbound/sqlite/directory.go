// Package sqlite provides a Directory backed by a SQLite database, for
// deployments where the chat server exports its users, vCards and presence
// into a shared database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mellium.im/xmpp/jid"
	_ "modernc.org/sqlite"

	"github.com/Sentinel-Gate/awaymail/internal/port/outbound"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	email    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS vcard_fields (
	username TEXT NOT NULL,
	field    TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (username, field)
);
CREATE TABLE IF NOT EXISTS presence (
	username TEXT PRIMARY KEY,
	status   TEXT NOT NULL
);`

// Directory implements outbound.Directory over SQLite.
type Directory struct {
	db      *sql.DB
	domains map[string]struct{}
}

// Open opens (and migrates) the database at dsn. Addresses in domains are
// treated as local.
func Open(ctx context.Context, dsn string, domains ...string) (*Directory, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite directory: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite directory: %w", err)
	}

	d := &Directory{db: db, domains: make(map[string]struct{}, len(domains))}
	for _, domain := range domains {
		d.domains[strings.ToLower(domain)] = struct{}{}
	}
	return d, nil
}

// Close closes the database.
func (d *Directory) Close() error {
	return d.db.Close()
}

// Ping verifies the database is reachable.
func (d *Directory) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// IsLocal reports whether addr's domain is served locally.
func (d *Directory) IsLocal(addr jid.JID) bool {
	_, ok := d.domains[strings.ToLower(addr.Domainpart())]
	return ok
}

// GetUser returns the account for localpart.
// Returns outbound.ErrUserNotFound if it doesn't exist.
func (d *Directory) GetUser(ctx context.Context, localpart string) (*outbound.User, error) {
	u := &outbound.User{Username: localpart}
	err := d.db.QueryRowContext(ctx,
		`SELECT name, email FROM users WHERE username = ?`, localpart,
	).Scan(&u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, outbound.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", localpart, err)
	}
	return u, nil
}

// GetPresence returns the user's status, "unavailable" when none is stored.
func (d *Directory) GetPresence(ctx context.Context, user *outbound.User) (string, error) {
	var status string
	err := d.db.QueryRowContext(ctx,
		`SELECT status FROM presence WHERE username = ?`, user.Username,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "unavailable", nil
	}
	if err != nil {
		return "", fmt.Errorf("get presence %q: %w", user.Username, err)
	}
	return status, nil
}

// GetProfileField returns a vCard field or "" when it is not set.
func (d *Directory) GetProfileField(ctx context.Context, localpart, field string) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx,
		`SELECT value FROM vcard_fields WHERE username = ? AND field = ?`, localpart, field,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get vcard field %s for %q: %w", field, localpart, err)
	}
	return value, nil
}

// PutUser inserts or replaces an account.
func (d *Directory) PutUser(ctx context.Context, user outbound.User) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (username, name, email) VALUES (?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET name = excluded.name, email = excluded.email`,
		user.Username, user.Name, user.Email,
	)
	if err != nil {
		return fmt.Errorf("put user %q: %w", user.Username, err)
	}
	return nil
}

// SetProfileField sets a vCard field. An empty value deletes it.
func (d *Directory) SetProfileField(ctx context.Context, username, field, value string) error {
	var err error
	if value == "" {
		_, err = d.db.ExecContext(ctx,
			`DELETE FROM vcard_fields WHERE username = ? AND field = ?`, username, field)
	} else {
		_, err = d.db.ExecContext(ctx,
			`INSERT INTO vcard_fields (username, field, value) VALUES (?, ?, ?)
			 ON CONFLICT(username, field) DO UPDATE SET value = excluded.value`,
			username, field, value)
	}
	if err != nil {
		return fmt.Errorf("set vcard field %s for %q: %w", field, username, err)
	}
	return nil
}

// SetPresence records the user's current status.
func (d *Directory) SetPresence(ctx context.Context, username, status string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO presence (username, status) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET status = excluded.status`,
		username, status,
	)
	if err != nil {
		return fmt.Errorf("set presence %q: %w", username, err)
	}
	return nil
}

// Compile-time check that Directory implements outbound.Directory.
var _ outbound.Directory = (*Directory)(nil)
