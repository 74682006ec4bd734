package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/example/daygap/internal/dailynotes"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Daily    DailyConfig       `yaml:"daily"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Settings SettingsConfig    `yaml:"settings"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Daily.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// DailyConfig holds daily note configuration.
//
// Folder and Template are vault-relative paths; an empty Folder means
// daily notes live in the vault root. Malformed controls what a scan
// does with undated files in the folder: "ignore", "warn" (default)
// or "error".
type DailyConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Folder    string `yaml:"folder"`
	Pattern   string `yaml:"pattern"`
	Template  string `yaml:"template"`
	Malformed string `yaml:"malformed"`
}

// Validate validates the daily note configuration.
func (c *DailyConfig) Validate() error {
	// Normalise empty policy to the default so downstream code never
	// sees "".
	if c.Malformed == "" {
		c.Malformed = string(dailynotes.MalformedWarn)
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Pattern, validation.Required),
		validation.Field(&c.Malformed, validation.In(
			string(dailynotes.MalformedIgnore),
			string(dailynotes.MalformedWarn),
			string(dailynotes.MalformedError),
		)),
	); err != nil {
		return err
	}
	if _, err := dailynotes.CompilePattern(c.Pattern); err != nil {
		return fmt.Errorf("daily: %w", err)
	}
	return nil
}

// Notes converts the section into the vault-level settings the daily
// note machinery consumes.
func (c *DailyConfig) Notes() dailynotes.VaultConfig {
	return dailynotes.VaultConfig{
		Enabled:      c.Enabled,
		Dir:          c.Folder,
		Pattern:      c.Pattern,
		TemplatePath: c.Template,
		Malformed:    dailynotes.MalformedPolicy(c.Malformed),
	}
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SettingsConfig holds the path of the persisted runtime settings file.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Daily: DailyConfig{
			Enabled:   true,
			Folder:    "daily",
			Pattern:   "YYYY-MM-DD",
			Malformed: string(dailynotes.MalformedWarn),
		},
		SQLite: SQLiteConfig{
			Path: "./daygap.db",
		},
		Settings: SettingsConfig{
			Path: "./daygap.settings.json",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
