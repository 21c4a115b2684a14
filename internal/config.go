package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Data   DataConfig        `yaml:"data"`
	Search SearchConfig      `yaml:"search"`
	Cloud  CloudConfig       `yaml:"cloud"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
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

// DataConfig holds the persistent state directory. The structured store
// file and the full-text index directory live side by side under Dir; both
// are deletable and rebuildable from a fresh indexing run.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// StorePath returns the structured store file path.
func (c *DataConfig) StorePath() string {
	return filepath.Join(c.Dir, "files.db")
}

// FulltextPath returns the full-text index directory.
func (c *DataConfig) FulltextPath() string {
	return filepath.Join(c.Dir, "fulltext")
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// SearchConfig holds indexing and search behaviour.
type SearchConfig struct {
	Roots            []string      `yaml:"roots"`
	ExcludedPrefixes []string      `yaml:"excluded_prefixes"`
	IncludeHidden    bool          `yaml:"include_hidden"`
	IncludedExts     []string      `yaml:"included_extensions"`
	ExcludedExts     []string      `yaml:"excluded_extensions"`
	MaxFileSize      int64         `yaml:"max_file_size"`
	BatchSize        int           `yaml:"batch_size"`
	Workers          int           `yaml:"workers"`
	IndexContent     bool          `yaml:"index_content"`
	WatchRoots       bool          `yaml:"watch_roots"`
	ToolTimeout      time.Duration `yaml:"tool_timeout"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Roots, validation.Required, validation.Length(1, 0)),
		validation.Field(&c.BatchSize, validation.Min(0)),
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.MaxFileSize, validation.Min(int64(0))),
	)
}

// CloudConfig holds cloud search configuration.
type CloudConfig struct {
	Enabled     bool          `yaml:"enabled"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
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
		Data: DataConfig{
			Dir: "./data",
		},
		Search: SearchConfig{
			Roots:            []string{"."},
			ExcludedPrefixes: []string{"/proc", "/sys", "/dev", "/run"},
			ExcludedExts:     []string{"tmp", "swp", "lock"},
			MaxFileSize:      1 << 30,
			BatchSize:        1000,
			Workers:          4,
			IndexContent:     true,
			WatchRoots:       true,
			ToolTimeout:      30 * time.Second,
		},
		Cloud: CloudConfig{
			Enabled:     false,
			HTTPTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
