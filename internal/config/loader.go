// Package config provides configuration loading for awaymail.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for awaymail.yaml/.yml in standard locations.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// ReadInConfig returns ConfigFileNotFoundError, handled by callers.
		viper.SetConfigName("awaymail")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: AWAYMAIL_FORWARDING_SUBJECT
	viper.SetEnvPrefix("AWAYMAIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for an awaymail config file
// with an explicit YAML extension, so the binary itself is never matched.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	return findConfigFileInPaths([]string{
		".",
		filepath.Join(home, ".awaymail"),
		"/etc/awaymail",
	})
}

// findConfigFileInPaths searches the given directories for awaymail.yaml or .yml.
// Returns the full path of the first match, or empty string if none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "awaymail"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds config keys for environment variable support.
// Example: AWAYMAIL_SERVER_DOMAIN overrides server.domain
func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("server.domain")

	_ = viper.BindEnv("forwarding.show_email")
	_ = viper.BindEnv("forwarding.subject")
	_ = viper.BindEnv("forwarding.body_plain")
	_ = viper.BindEnv("forwarding.body_html")
	_ = viper.BindEnv("forwarding.use_address_as_email")
	_ = viper.BindEnv("forwarding.default_email")
	_ = viper.BindEnv("forwarding.filter")

	_ = viper.BindEnv("directory.driver")
	_ = viper.BindEnv("directory.dsn")
	// directory.local_domains is an array, set it in the config file.

	_ = viper.BindEnv("smtp.addr")
	_ = viper.BindEnv("smtp.username")
	_ = viper.BindEnv("smtp.password")
	_ = viper.BindEnv("smtp.envelope")

	_ = viper.BindEnv("router.url")
	_ = viper.BindEnv("router.timeout")

	_ = viper.BindEnv("telemetry.enabled")
	_ = viper.BindEnv("telemetry.metrics_interval")
	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration, applies defaults and validates it.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults,
// but does NOT apply dev defaults or validate.
// Use this when CLI flags may override DevMode before validation.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found: continue with env vars only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
