// Package config loads service configuration from YAML, .env files and
// ABSENTEE_* environment variables, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"absentee/internal/domain/absentee"
)

// DefaultPath is read when no --config flag is given. A missing file is not an error.
const DefaultPath = "absentee.yaml"

// Auth modes.
const (
	AuthSharedSecret = "shared_secret"
	AuthAccounts     = "accounts"
)

// ErrSecretRequired is returned when shared-secret auth has neither a secret nor a hash.
var ErrSecretRequired = errors.New("auth.secret or auth.secret_hash is required for shared_secret mode")

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP listener and request middleware.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080" validate:"required"`
	Env  string `yaml:"env" default:"development" validate:"oneof=development production test"`
	// CSRFKey is 32 bytes hex-encoded. Empty means a random per-process key.
	CSRFKey         string `yaml:"csrf_key" validate:"omitempty,hexadecimal,len=64"`
	LoginRateLimit  int    `yaml:"login_rate_limit" default:"10" validate:"min=1"`
	SlowRequestMS   int    `yaml:"slow_request_ms" default:"200" validate:"min=1"`
	MaxUploadMB     int64  `yaml:"max_upload_mb" default:"10" validate:"min=1,max=100"`
	SessionTTLHours int    `yaml:"session_ttl_hours" default:"24" validate:"min=1"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver      string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite pgx"`
	DSN         string `yaml:"dsn" default:"absentee.db" validate:"required"`
	SlowQueryMS int    `yaml:"slow_query_ms" default:"100" validate:"min=1"`
}

// AuthConfig selects how operators sign in.
type AuthConfig struct {
	Mode string `yaml:"mode" default:"shared_secret" validate:"oneof=shared_secret accounts"`
	// Secret is a plaintext shared secret, hashed at startup.
	Secret string `yaml:"secret"`
	// SecretHash is a bcrypt hash of the shared secret and wins over Secret.
	SecretHash    string `yaml:"secret_hash"`
	AdminEmail    string `yaml:"admin_email" default:"admin@example.com" validate:"omitempty,email"`
	AdminPassword string `yaml:"admin_password"`
}

// ReportConfig holds the engine settings.
type ReportConfig struct {
	Offsets    []int         `yaml:"offsets" default:"[2,3,4,5,6,7,8]" validate:"required,dive,min=0"`
	WindowDays int           `yaml:"window_days" default:"3" validate:"min=1,max=7"`
	DraftTTL   time.Duration `yaml:"draft_ttl" default:"2h" validate:"min=1m"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// Settings converts the report section to engine settings.
func (r ReportConfig) Settings() absentee.Settings {
	return absentee.Settings{
		Offsets:    append([]int(nil), r.Offsets...),
		WindowDays: r.WindowDays,
	}
}

// IsProduction reports whether the service runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Load builds a Config from defaults, the YAML file at path, a .env file in the
// working directory and ABSENTEE_* variables.
// PRE: path may name a missing file, in which case only defaults and env apply
// POST: returned config passed Validate
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from ABSENTEE_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("ABSENTEE_ADDR", &c.Server.Addr)
	str("ABSENTEE_ENV", &c.Server.Env)
	str("ABSENTEE_CSRF_KEY", &c.Server.CSRFKey)
	str("ABSENTEE_DB_DRIVER", &c.Database.Driver)
	str("ABSENTEE_DB_DSN", &c.Database.DSN)
	str("ABSENTEE_AUTH_MODE", &c.Auth.Mode)
	str("ABSENTEE_SHARED_SECRET", &c.Auth.Secret)
	str("ABSENTEE_SHARED_SECRET_HASH", &c.Auth.SecretHash)
	str("ABSENTEE_ADMIN_EMAIL", &c.Auth.AdminEmail)
	str("ABSENTEE_ADMIN_PASSWORD", &c.Auth.AdminPassword)
	str("ABSENTEE_LOG_LEVEL", &c.Logging.Level)
	str("ABSENTEE_LOG_FORMAT", &c.Logging.Format)

	if v := getenv("ABSENTEE_OFFSETS"); v != "" {
		offsets, err := ParseOffsets(v)
		if err != nil {
			return fmt.Errorf("ABSENTEE_OFFSETS: %w", err)
		}
		c.Report.Offsets = offsets
	}
	if v := getenv("ABSENTEE_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ABSENTEE_WINDOW_DAYS: %w", err)
		}
		c.Report.WindowDays = n
	}
	return nil
}

// ParseOffsets reads a comma-separated offset list such as "2,3,4".
func ParseOffsets(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q", p)
		}
		offsets = append(offsets, n)
	}
	return offsets, nil
}

// Validate checks struct tags, then the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Report.Settings().Validate(); err != nil {
		return err
	}
	if c.Auth.Mode == AuthSharedSecret && c.Auth.Secret == "" && c.Auth.SecretHash == "" {
		return ErrSecretRequired
	}
	return nil
}
