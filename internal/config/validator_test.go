package config

import (
	"strings"
	"testing"
)

// minimalValidConfig returns a minimal valid Config for testing.
func minimalValidConfig() *Config {
	cfg := &Config{Server: ServerConfig{Domain: "example.com"}}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	if err := minimalValidConfig().Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing domain",
			mutate:  func(c *Config) { c.Server.Domain = "" },
			wantErr: "Domain",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "loud" },
			wantErr: "must be one of",
		},
		{
			name:    "bad default email",
			mutate:  func(c *Config) { c.Forwarding.DefaultEmail = "not-an-email" },
			wantErr: "valid e-mail",
		},
		{
			name:    "malformed placeholder",
			mutate:  func(c *Config) { c.Forwarding.BodyPlain = "You missed: $IMBODY$" },
			wantErr: "placeholder",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Directory.Driver = "ldap" },
			wantErr: "must be one of",
		},
		{
			name:    "sqlite without dsn",
			mutate:  func(c *Config) { c.Directory.Driver = "sqlite" },
			wantErr: "directory.dsn is required",
		},
		{
			name: "no fallback address",
			mutate: func(c *Config) {
				c.Forwarding.UseAddressAsEmail = false
				c.Forwarding.DefaultEmail = ""
			},
			wantErr: "default_email is required",
		},
		{
			name:    "bad router url",
			mutate:  func(c *Config) { c.Router.URL = "::not a url" },
			wantErr: "valid URL",
		},
		{
			name:    "bad router timeout",
			mutate:  func(c *Config) { c.Router.Timeout = "soon" },
			wantErr: "positive duration",
		},
		{
			name:    "negative metrics interval",
			mutate:  func(c *Config) { c.Telemetry.MetricsInterval = "-1s" },
			wantErr: "positive duration",
		},
		{
			name:    "filter too long",
			mutate:  func(c *Config) { c.Forwarding.Filter = strings.Repeat("a", 1025) },
			wantErr: "at most",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := minimalValidConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_EmptyTemplatesAllowed(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Forwarding.BodyPlain = ""
	cfg.Forwarding.BodyHTML = "<p>$$IMBODY$$</p>"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_BothTemplatesEmpty(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Forwarding.BodyPlain = ""
	cfg.Forwarding.BodyHTML = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "cannot both be empty") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestValidate_TemplateWithoutPlaceholderAllowed(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Forwarding.BodyPlain = "You have a new chat message."

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_SqliteWithDSN(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Directory.Driver = "sqlite"
	cfg.Directory.DSN = "file:awaymail.db"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}
