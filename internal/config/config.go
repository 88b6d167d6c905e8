// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config loads gatehouse configuration from flags, an optional YAML
// file and the environment.
//
// Precedence, lowest first: flag defaults, the YAML file, flags set on the
// command line. DATABASE_URL is consulted only when database.url is empty.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gatehouse-auth/gatehouse/internal/logging"
)

// EnvDatabaseURL is the fallback source for database.url.
const EnvDatabaseURL = "DATABASE_URL"

// Defaults.
const (
	DefaultHTTPAddr       = ":3000"
	DefaultMetricsAddr    = "127.0.0.1:9100"
	DefaultConnectTimeout = 30 * time.Second
	DefaultSessionName    = "session"
	DefaultSessionMaxAge  = time.Hour
	DefaultBcryptCost     = 12
	DefaultLogFormat      = "json"
	DefaultLogLevel       = "info"
)

// Config is the full runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// HTTPConfig configures the public listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
}

// SessionConfig configures the signed session cookie. The first key signs;
// every key is accepted when verifying.
type SessionConfig struct {
	Name   string        `koanf:"name"`
	Keys   []string      `koanf:"keys"`
	MaxAge time.Duration `koanf:"max_age"`
	Secure bool          `koanf:"secure"`
}

// AuthConfig configures password hashing.
type AuthConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

// LogConfig configures the default logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"http-addr":                "http.addr",
	"metrics-addr":             "metrics.addr",
	"database-url":             "database.url",
	"database-connect-timeout": "database.connect_timeout",
	"auto-migrate":             "database.auto_migrate",
	"session-name":             "session.name",
	"session-keys":             "session.keys",
	"session-max-age":          "session.max_age",
	"session-secure":           "session.secure",
	"bcrypt-cost":              "auth.bcrypt_cost",
	"log-format":               "log.format",
	"log-level":                "log.level",
}

// RegisterServerFlags adds every serve flag, with its default, to flags.
func RegisterServerFlags(flags *pflag.FlagSet) {
	flags.String("http-addr", DefaultHTTPAddr, "public HTTP listen address")
	flags.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.Bool("auto-migrate", false, "apply pending migrations before serving")
	flags.String("session-name", DefaultSessionName, "session cookie name")
	flags.StringSlice("session-keys", nil, "session signing keys, newest first")
	flags.Duration("session-max-age", DefaultSessionMaxAge, "session lifetime")
	flags.Bool("session-secure", false, "mark the session cookie Secure")
	flags.Int("bcrypt-cost", DefaultBcryptCost, "bcrypt cost for new password hashes")
	RegisterDatabaseFlags(flags)
	RegisterLogFlags(flags)
}

// RegisterDatabaseFlags adds the database flags to flags.
func RegisterDatabaseFlags(flags *pflag.FlagSet) {
	flags.String("database-url", "", "PostgreSQL URL (default: $"+EnvDatabaseURL+")")
	flags.Duration("database-connect-timeout", DefaultConnectTimeout, "how long to wait for the database at startup")
}

// RegisterLogFlags adds the logging flags to flags.
func RegisterLogFlags(flags *pflag.FlagSet) {
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
}

// Load builds a Config from flags and, when path is non-empty, the YAML file
// at path. Flags not registered on flags keep their zero value unless the
// file sets them.
func Load(flags *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(EnvDatabaseURL)
	}
	return &cfg, nil
}

// LoadDotEnv loads each existing file into the process environment.
// Variables that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}
	return nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").With("key", "log.format").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "log.level").
			Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// ValidateServer checks the settings the serve command needs on top of
// Validate.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "http.addr").Errorf("http.addr is required")
	}
	if len(c.Session.Keys) == 0 {
		return oops.Code("CONFIG_INVALID").With("key", "session.keys").Errorf("at least one session key is required")
	}
	for i, key := range c.Session.Keys {
		if key == "" {
			return oops.Code("CONFIG_INVALID").With("key", "session.keys").With("index", i).
				Errorf("session keys must not be empty")
		}
	}
	if c.Session.MaxAge <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", "session.max_age").
			Errorf("session.max_age must be positive, got %s", c.Session.MaxAge)
	}
	return c.RequireDatabase()
}

// RequireDatabase reports a CONFIG_INVALID error when no database URL is
// configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("key", "database.url").
			Errorf("database.url or %s is required", EnvDatabaseURL)
	}
	return nil
}
