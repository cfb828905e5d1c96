package services

import (
	"fmt"
	"os"
	"time"
)

// Config holds the base addresses for every collaborator service plus the
// shared HTTP client parameters. It is read-only after Finalize.
type Config struct {
	Identity      string `toml:"identity"`
	Routing       string `toml:"routing"`
	Intake        string `toml:"intake"`
	Preprocessing string `toml:"preprocessing"`
	Extraction    string `toml:"extraction"`
	Validation    string `toml:"validation"`
	Persistence   string `toml:"persistence"`
	Feedback      string `toml:"feedback"`
	Notification  string `toml:"notification"`

	Timeout         string `toml:"timeout"`
	MaxResponseSize string `toml:"max_response_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Identity      string
	Routing       string
	Intake        string
	Preprocessing string
	Extraction    string
	Validation    string
	Persistence   string
	Feedback      string
	Notification  string

	Timeout         string
	MaxResponseSize string
}

// Logical collaborator names resolved against the Config.
const (
	SvcIdentity      = "identity"
	SvcRouting       = "routing"
	SvcIntake        = "intake"
	SvcPreprocessing = "preprocessing"
	SvcExtraction    = "extraction"
	SvcValidation    = "validation"
	SvcPersistence   = "persistence"
	SvcFeedback      = "feedback"
	SvcNotification  = "notification"
)

// Endpoints returns the service-name to base-URL map.
func (c *Config) Endpoints() map[string]string {
	return map[string]string{
		SvcIdentity:      c.Identity,
		SvcRouting:       c.Routing,
		SvcIntake:        c.Intake,
		SvcPreprocessing: c.Preprocessing,
		SvcExtraction:    c.Extraction,
		SvcValidation:    c.Validation,
		SvcPersistence:   c.Persistence,
		SvcFeedback:      c.Feedback,
		SvcNotification:  c.Notification,
	}
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Identity != "" {
		c.Identity = overlay.Identity
	}
	if overlay.Routing != "" {
		c.Routing = overlay.Routing
	}
	if overlay.Intake != "" {
		c.Intake = overlay.Intake
	}
	if overlay.Preprocessing != "" {
		c.Preprocessing = overlay.Preprocessing
	}
	if overlay.Extraction != "" {
		c.Extraction = overlay.Extraction
	}
	if overlay.Validation != "" {
		c.Validation = overlay.Validation
	}
	if overlay.Persistence != "" {
		c.Persistence = overlay.Persistence
	}
	if overlay.Feedback != "" {
		c.Feedback = overlay.Feedback
	}
	if overlay.Notification != "" {
		c.Notification = overlay.Notification
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxResponseSize != "" {
		c.MaxResponseSize = overlay.MaxResponseSize
	}
}

func (c *Config) loadDefaults() {
	defaults := map[*string]string{
		&c.Identity:      "http://localhost:8001",
		&c.Routing:       "http://localhost:8002",
		&c.Intake:        "http://localhost:8003",
		&c.Preprocessing: "http://localhost:8004",
		&c.Extraction:    "http://localhost:8005",
		&c.Validation:    "http://localhost:8006",
		&c.Persistence:   "http://localhost:8007",
		&c.Feedback:      "http://localhost:8008",
		&c.Notification:  "http://localhost:8009",
	}
	for field, value := range defaults {
		if *field == "" {
			*field = value
		}
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MaxResponseSize == "" {
		c.MaxResponseSize = "10MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	overrides := map[string]*string{
		env.Identity:        &c.Identity,
		env.Routing:         &c.Routing,
		env.Intake:          &c.Intake,
		env.Preprocessing:   &c.Preprocessing,
		env.Extraction:      &c.Extraction,
		env.Validation:      &c.Validation,
		env.Persistence:     &c.Persistence,
		env.Feedback:        &c.Feedback,
		env.Notification:    &c.Notification,
		env.Timeout:         &c.Timeout,
		env.MaxResponseSize: &c.MaxResponseSize,
	}
	for name, field := range overrides {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

func (c *Config) validate() error {
	for name, base := range c.Endpoints() {
		if base == "" {
			return fmt.Errorf("service %s has no base url", name)
		}
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
