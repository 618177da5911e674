package config

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Settings is an immutable snapshot of the forwarding configuration.
type Settings struct {
	ShowEmail         bool
	Subject           string
	PlainBody         string
	HTMLBody          string
	UseAddressAsEmail bool
	DefaultEmail      string
	Filter            string
}

// DefaultSettings returns the built-in forwarding settings for domain.
func DefaultSettings(domain string) Settings {
	return Settings{
		ShowEmail:         true,
		Subject:           "IM",
		PlainBody:         BodyPlaceholder,
		HTMLBody:          "",
		UseAddressAsEmail: true,
		DefaultEmail:      "no-reply@" + domain,
	}
}

// Fingerprint returns a stable hash of the snapshot, used to detect reloads
// that did not change anything.
func (s Settings) Fingerprint() uint64 {
	h := xxhash.New()
	for _, part := range []string{
		strconv.FormatBool(s.ShowEmail),
		s.Subject,
		s.PlainBody,
		s.HTMLBody,
		strconv.FormatBool(s.UseAddressAsEmail),
		s.DefaultEmail,
		s.Filter,
	} {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// SettingsSource gives read-only access to the current forwarding settings.
// Each call returns a consistent snapshot.
type SettingsSource interface {
	Settings() Settings
}

// StaticSettings is a SettingsSource that never changes.
type StaticSettings Settings

// Settings returns the fixed snapshot.
func (s StaticSettings) Settings() Settings {
	return Settings(s)
}

// LiveSettings is a SettingsSource that can be swapped atomically while
// readers are active.
type LiveSettings struct {
	current     atomic.Pointer[Settings]
	fingerprint atomic.Uint64
	logger      *slog.Logger
}

// NewLiveSettings creates a LiveSettings holding initial.
func NewLiveSettings(initial Settings, logger *slog.Logger) *LiveSettings {
	l := &LiveSettings{logger: logger}
	l.current.Store(&initial)
	l.fingerprint.Store(initial.Fingerprint())
	return l
}

// Settings returns the current snapshot.
func (l *LiveSettings) Settings() Settings {
	return *l.current.Load()
}

// Update publishes next. It returns false when next is identical to the
// current snapshot.
func (l *LiveSettings) Update(next Settings) bool {
	fp := next.Fingerprint()
	if l.fingerprint.Load() == fp {
		return false
	}
	l.current.Store(&next)
	l.fingerprint.Store(fp)
	return true
}

// Reload re-reads the configuration through load and publishes its
// forwarding settings. A failing load keeps the previous snapshot.
func (l *LiveSettings) Reload(load func() (*Config, error)) {
	cfg, err := load()
	if err != nil {
		l.logger.Warn("config reload rejected, keeping previous forwarding settings", "error", err)
		return
	}
	if l.Update(cfg.Settings()) {
		l.logger.Info("forwarding settings reloaded", "file", ConfigFileUsed())
	} else {
		l.logger.Debug("config changed without affecting forwarding settings")
	}
}

// Watch reloads the settings whenever the config file changes.
// It is a no-op when no config file is in use.
func (l *LiveSettings) Watch(load func() (*Config, error)) {
	if ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		l.logger.Debug("config file event", "file", e.Name, "op", e.Op.String())
		l.Reload(load)
	})
	viper.WatchConfig()
}
