package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/adr/internal/record"
	"github.com/starford/adr/internal/slug"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Store    StoreConfig       `yaml:"store"`
	Template TemplateConfig    `yaml:"template"`
	Editor   EditorConfig      `yaml:"editor"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
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

// StoreConfig describes where records live and how they are named.
type StoreConfig struct {
	Root      string `yaml:"root"`      // project root; Dir is relative to it
	Dir       string `yaml:"dir"`       // record directory
	Extension string `yaml:"extension"` // without the leading dot
	Width     int    `yaml:"width"`     // zero-padded id width
	SlugCase  string `yaml:"slug_case"` // acronym, preserve or lower
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	cases := make([]any, len(slug.Cases))
	for i, sc := range slug.Cases {
		cases[i] = string(sc)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Dir, validation.Required, validation.By(relativePath)),
		validation.Field(&c.Extension, validation.Required),
		validation.Field(&c.Width, validation.Required, validation.Min(1), validation.Max(9)),
		validation.Field(&c.SlugCase, validation.Required, validation.In(cases...)),
	)
}

// Options converts the configuration into record store options.
func (c *StoreConfig) Options() record.Options {
	return record.Options{
		Dir:       filepath.ToSlash(c.Dir),
		Extension: c.Extension,
		Width:     c.Width,
		Case:      slug.Case(c.SlugCase),
	}
}

func relativePath(v any) error {
	p, _ := v.(string)
	if filepath.IsAbs(p) {
		return fmt.Errorf("must be relative to store.root")
	}
	return nil
}

// TemplateConfig points at a custom record template. Empty means the
// built-in one.
type TemplateConfig struct {
	Path   string `yaml:"path"`
	Status string `yaml:"status"` // status rendered into new records
}

// EditorConfig names the command that opens new records. Empty falls back
// to $VISUAL, then $EDITOR.
type EditorConfig struct {
	Command string `yaml:"command"`
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

// AuthConfig holds API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
	def := record.DefaultOptions()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Root:      ".",
			Dir:       def.Dir,
			Extension: def.Extension,
			Width:     def.Width,
			SlugCase:  string(def.Case),
		},
		SQLite: SQLiteConfig{
			Path: ".adr/index.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
