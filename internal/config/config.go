// Package config provides configuration types for awaymail.
//
// Configuration is file-based (YAML) with environment overrides. The
// forwarding section is hot-reloadable: the daemon watches the config file
// and publishes a fresh Settings snapshot through LiveSettings on every valid
// change. All other sections are read once at start.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// BodyPlaceholder is replaced by the chat message body in mail templates.
const BodyPlaceholder = "$$IMBODY$$"

// Config is the top-level configuration for awaymail.
type Config struct {
	// Server configures the HTTP listener and the served XMPP domain.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Forwarding controls how away messages are mailed and confirmed.
	Forwarding ForwardingConfig `yaml:"forwarding" mapstructure:"forwarding"`

	// Directory selects where users, vCards and presence are read from.
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`

	// SMTP configures the outbound mail relay.
	SMTP SMTPConfig `yaml:"smtp" mapstructure:"smtp"`

	// Router configures delivery of confirmation messages to the chat server.
	Router RouterConfig `yaml:"router" mapstructure:"router"`

	// Telemetry configures OpenTelemetry span and metric export.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DevMode enables debug logging and in-memory collaborators.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTPAddr is the address to listen on. Defaults to "127.0.0.1:8085".
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error". Defaults to "info".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Domain is the XMPP domain served by the hosting chat server.
	// Addresses in this domain (and LocalDomains) are considered local.
	Domain string `yaml:"domain" mapstructure:"domain" validate:"required,fqdn|hostname"`
}

// ForwardingConfig holds the hot-reloadable forwarding settings.
type ForwardingConfig struct {
	// ShowEmail includes the recipient's e-mail address in the confirmation
	// sent back to the sender. Default: true.
	ShowEmail bool `yaml:"show_email" mapstructure:"show_email"`

	// Subject is the subject of forwarded mails. Default: "IM".
	Subject string `yaml:"subject" mapstructure:"subject"`

	// BodyPlain is the plain-text mail template. $$IMBODY$$ is replaced by
	// the chat message. An explicitly empty template omits the plain part.
	// Default: "$$IMBODY$$".
	BodyPlain string `yaml:"body_plain" mapstructure:"body_plain" validate:"mail_template"`

	// BodyHTML is the HTML mail template. Empty omits the HTML part.
	// Default: "".
	BodyHTML string `yaml:"body_html" mapstructure:"body_html" validate:"mail_template"`

	// UseAddressAsEmail uses the bare XMPP address as e-mail address when
	// none can be looked up. Default: true.
	UseAddressAsEmail bool `yaml:"use_address_as_email" mapstructure:"use_address_as_email"`

	// DefaultEmail is used when no address can be looked up and
	// UseAddressAsEmail is false. Default: "no-reply@" + server.domain.
	DefaultEmail string `yaml:"default_email" mapstructure:"default_email" validate:"omitempty,email"`

	// Filter is an optional CEL expression that must evaluate to true for a
	// message to be forwarded. Empty forwards every qualifying message.
	Filter string `yaml:"filter" mapstructure:"filter" validate:"omitempty,max=1024"`
}

// DirectoryConfig selects the user/profile/presence backend.
type DirectoryConfig struct {
	// Driver is "memory" or "sqlite". Defaults to "memory".
	Driver string `yaml:"driver" mapstructure:"driver" validate:"omitempty,oneof=memory sqlite"`

	// DSN is the sqlite data source name. Required for the sqlite driver.
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	// LocalDomains lists additional domains treated as local.
	LocalDomains []string `yaml:"local_domains" mapstructure:"local_domains" validate:"omitempty,dive,hostname"`
}

// SMTPConfig configures the mail relay.
type SMTPConfig struct {
	// Addr is the relay address (host:port). Empty disables mail delivery
	// outside dev mode.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`

	// Username and Password enable SASL PLAIN auth when Username is set.
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`

	// Envelope is the SMTP envelope sender. Defaults to forwarding.default_email.
	Envelope string `yaml:"envelope" mapstructure:"envelope" validate:"omitempty,email"`
}

// RouterConfig configures the confirmation delivery webhook.
type RouterConfig struct {
	// URL is the chat server endpoint that accepts routed messages.
	URL string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	// Timeout bounds a single route request (e.g., "5s"). Defaults to "5s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// TimeoutDuration returns the parsed timeout, or 5s if it does not parse.
func (c RouterConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 5*time.Second)
}

// TelemetryConfig configures OpenTelemetry export. Prometheus metrics on
// /metrics are always served.
type TelemetryConfig struct {
	// Enabled installs SDK tracer and meter providers exporting to stderr.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// MetricsInterval is the metric export period (e.g., "60s").
	// Defaults to "60s".
	MetricsInterval string `yaml:"metrics_interval" mapstructure:"metrics_interval" validate:"omitempty,duration"`
}

// MetricsIntervalDuration returns the parsed interval, or 60s if it does not
// parse.
func (c TelemetryConfig) MetricsIntervalDuration() time.Duration {
	return parseDurationOr(c.MetricsInterval, 60*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// SetDefaults applies default values to the configuration.
// Values whose zero value is meaningful (booleans, templates) are only
// defaulted when the key was not set in YAML or the environment.
func (c *Config) SetDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8085"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if !viper.IsSet("forwarding.show_email") {
		c.Forwarding.ShowEmail = true
	}
	if c.Forwarding.Subject == "" && !viper.IsSet("forwarding.subject") {
		c.Forwarding.Subject = "IM"
	}
	if !viper.IsSet("forwarding.body_plain") {
		c.Forwarding.BodyPlain = BodyPlaceholder
	}
	if !viper.IsSet("forwarding.use_address_as_email") {
		c.Forwarding.UseAddressAsEmail = true
	}
	if c.Forwarding.DefaultEmail == "" && c.Server.Domain != "" {
		c.Forwarding.DefaultEmail = "no-reply@" + c.Server.Domain
	}

	if c.Directory.Driver == "" {
		c.Directory.Driver = "memory"
	}

	if c.SMTP.Envelope == "" {
		c.SMTP.Envelope = c.Forwarding.DefaultEmail
	}

	if c.Router.Timeout == "" {
		c.Router.Timeout = "5s"
	}

	if c.Telemetry.MetricsInterval == "" {
		c.Telemetry.MetricsInterval = "60s"
	}
}

// SetDevDefaults applies permissive defaults for development mode so the
// daemon runs with an empty config file.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.Server.Domain == "" {
		c.Server.Domain = "awaymail.local"
	}
	if c.Forwarding.DefaultEmail == "" {
		c.Forwarding.DefaultEmail = "no-reply@" + c.Server.Domain
	}
	if c.SMTP.Envelope == "" {
		c.SMTP.Envelope = c.Forwarding.DefaultEmail
	}
}

// Settings returns the forwarding snapshot for this configuration.
func (c *Config) Settings() Settings {
	return Settings{
		ShowEmail:         c.Forwarding.ShowEmail,
		Subject:           c.Forwarding.Subject,
		PlainBody:         c.Forwarding.BodyPlain,
		HTMLBody:          c.Forwarding.BodyHTML,
		UseAddressAsEmail: c.Forwarding.UseAddressAsEmail,
		DefaultEmail:      c.Forwarding.DefaultEmail,
		Filter:            c.Forwarding.Filter,
	}
}
