package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration. It is built once at startup
// and passed by pointer; nothing mutates it afterwards.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Log      LogConfig
	Seed     bool `env:"SEED" envDefault:"true"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `env:"DB_PATH" envDefault:"app.db"` // SQLite database file path
}

// HTTPConfig contains HTTP boundary settings.
type HTTPConfig struct {
	Address       string `env:"HTTP_ADDRESS" envDefault:":8000"`
	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string `env:"GRPC_ADDRESS" envDefault:":50051"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"30m"`
	PasswordScheme string        `env:"AUTH_PASSWORD_SCHEME" envDefault:"plaintext"`
}

// StorageConfig locates uploaded images on disk and in URLs.
type StorageConfig struct {
	StaticDir       string `env:"STATIC_DIR" envDefault:"static"`
	StaticURLPrefix string `env:"STATIC_URL_PREFIX" envDefault:"/static"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

const devSecret = "dev-secret-change-me"

// Load reads configuration from the environment. JWT_SECRET is required.
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but falls back to a development JWT secret.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devSecret
	}
	return cfg, nil
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.Auth.TokenTTL)
	}
	return cfg, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, Origin: %s, TTL: %s, Scheme: %s, Static: %s, Auth: *** (masked) ***}",
		c.Database.Path, c.HTTP.Address, c.GRPC.Address, c.HTTP.AllowedOrigin, c.Auth.TokenTTL, c.Auth.PasswordScheme, c.Storage.StaticDir)
}
