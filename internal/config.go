package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	App     AppConfig     `mapstructure:"app" validate:"required"`
	API     APIConfig     `mapstructure:"api" validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Logging LoggingConfig `mapstructure:"logging" validate:"required"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
}

type AppConfig struct {
	Env string `mapstructure:"env" validate:"required,oneof=development production test"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"required,min=1s"`
	RateLimit float64       `mapstructure:"rate_limit" validate:"min=0"`
	Burst     int           `mapstructure:"burst" validate:"min=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

type StorageConfig struct {
	Driver         string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	Source         string `mapstructure:"source" validate:"required"`
	SessionBackend string `mapstructure:"session_backend" validate:"required,oneof=sql redis"`
	RedisURL       string `mapstructure:"redis_url" validate:"required_if=SessionBackend redis"`
	KeyPrefix      string `mapstructure:"key_prefix"`
	Snapshots      bool   `mapstructure:"snapshots"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

type SandboxConfig struct {
	Port              int           `mapstructure:"port" validate:"min=0,max=65535"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `mapstructure:"refresh_token_ttl"`
	AccessSecret      string        `mapstructure:"access_secret"`
	RefreshSecret     string        `mapstructure:"refresh_secret"`
	WrapResponses     bool          `mapstructure:"wrap_responses"`
	TokenField        string        `mapstructure:"token_field" validate:"omitempty,oneof=token accessToken"`
}

// Defaults returns the configuration keys and values applied before any file
// or environment source.
func Defaults() map[string]any {
	return map[string]any{
		"app.env":                     "development",
		"api.base_url":                "http://localhost:8080/api",
		"api.timeout":                 10 * time.Second,
		"api.rate_limit":              0.0,
		"api.burst":                   1,
		"api.user_agent":              "admin-console",
		"storage.driver":              "sqlite",
		"storage.source":              filepath.Join(defaultDataDir(), "console.db"),
		"storage.session_backend":     "sql",
		"storage.redis_url":           "",
		"storage.key_prefix":          "admin-console:",
		"storage.snapshots":           true,
		"logging.level":               "warn",
		"logging.format":              "text",
		"sandbox.port":                8080,
		"sandbox.allowed_origins":     "*",
		"sandbox.read_header_timeout": 5 * time.Second,
		"sandbox.read_timeout":        15 * time.Second,
		"sandbox.write_timeout":       15 * time.Second,
		"sandbox.idle_timeout":        60 * time.Second,
		"sandbox.access_token_ttl":    15 * time.Minute,
		"sandbox.refresh_token_ttl":   7 * 24 * time.Hour,
		"sandbox.access_secret":       "sandbox-access-secret-change-me",
		"sandbox.refresh_secret":      "sandbox-refresh-secret-change-me",
		"sandbox.wrap_responses":      true,
		"sandbox.token_field":         "token",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".admin-console"
	}
	return filepath.Join(home, ".admin-console")
}

// ----------------- VALIDATION -----------------

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	var errs []string

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("api config: %v", err))
	}

	if err := c.Sandbox.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("sandbox config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *APIConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.RateLimit > 0 && c.Burst < 1 {
		return errors.New("burst must be at least 1 when rate_limit is set")
	}
	return nil
}

func (c *SandboxConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	if c.RefreshTokenTTL > 0 && c.AccessTokenTTL > c.RefreshTokenTTL {
		return errors.New("access_token_ttl cannot exceed refresh_token_ttl")
	}
	return nil
}

func (c *SandboxConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// ExpandedSource resolves a leading "~" in the storage source.
func (c *StorageConfig) ExpandedSource() string {
	if strings.HasPrefix(c.Source, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, c.Source[2:])
		}
	}
	return c.Source
}
