// Package config loads the service configuration from a TOML base file, an
// optional environment overlay, and environment variable overrides. The
// loaded Config is finalized once at process start and read-only afterward.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Om1001-OPS/mkol/internal/services"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvMkolEnv             = "MKOL_ENV"
	EnvMkolShutdownTimeout = "MKOL_SHUTDOWN_TIMEOUT"
	EnvMkolVersion         = "MKOL_VERSION"
)

var servicesEnv = &services.Env{
	Identity:        "MKOL_SVC_IDENTITY_URL",
	Routing:         "MKOL_SVC_ROUTING_URL",
	Intake:          "MKOL_SVC_INTAKE_URL",
	Preprocessing:   "MKOL_SVC_PREPROCESSING_URL",
	Extraction:      "MKOL_SVC_EXTRACTION_URL",
	Validation:      "MKOL_SVC_VALIDATION_URL",
	Persistence:     "MKOL_SVC_PERSISTENCE_URL",
	Feedback:        "MKOL_SVC_FEEDBACK_URL",
	Notification:    "MKOL_SVC_NOTIFICATION_URL",
	Timeout:         "MKOL_SVC_TIMEOUT",
	MaxResponseSize: "MKOL_SVC_MAX_RESPONSE_SIZE",
}

// Config is the root configuration for the workflow service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Services        services.Config `toml:"services"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the MKOL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvMkolEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and
// environment variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Services.Merge(&overlay.Services)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Services.Finalize(servicesEnv); err != nil {
		return fmt.Errorf("services: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvMkolShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvMkolVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvMkolEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
