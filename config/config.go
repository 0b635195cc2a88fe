// Package config loads runtime settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT, default=8080"`
	Env       string `env:"ENV, default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	Locale    string `env:"LOCALE, default=de"`

	Store StoreConfig
	Auth  AuthConfig

	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
}

type StoreConfig struct {
	// Driver is sqlite, mongo or memory.
	Driver     string `env:"STORE_DRIVER, default=sqlite"`
	SQLitePath string `env:"SQLITE_PATH, default=leave.db"`
	MongoURI   string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	MongoDB    string `env:"MONGO_DB, default=leave_planner"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=12h"`

	// Wrong PINs in a row before a user is locked out, and for how long.
	MaxFailedLogins int           `env:"LOGIN_MAX_FAILURES, default=5"`
	LoginLockout    time.Duration `env:"LOGIN_LOCKOUT, default=5m"`

	// Bootstrap admin, created only when no users exist.
	AdminName string `env:"ADMIN_NAME, default=Admin"`
	AdminPIN  string `env:"ADMIN_PIN"`
}

// Load reads an optional .env file from the working directory and then the
// process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom processes the configuration against an explicit lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "mongo", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Auth.JWTSecret == "" && c.Env == "production" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.Auth.MaxFailedLogins < 0 || c.Auth.LoginLockout < 0 {
		return errors.New("LOGIN_MAX_FAILURES and LOGIN_LOCKOUT must not be negative")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
