package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset outside production.
// It must never be relied on in a deployed environment.
const DevJWTSecret = "dev-only-insecure-secret"

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds process-wide settings, read once at startup.
type Config struct {
	Env            string
	Port           string
	JWTSecret      string
	StoreDriver    string
	MongoURI       string
	MongoDatabase  string
	DBPath         string
	LogLevel       string
	CORSOrigins    []string
	AdminEmail     string
	AdminPassword  string
	UsingDevSecret bool
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &Config{
		Env:           env("APP_ENV", "development"),
		Port:          env("PORT", "5000"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: env("MONGODB_DATABASE", "expense_manager"),
		DBPath:        env("DB_PATH", "expenses.db"),
		LogLevel:      env("LOG_LEVEL", "info"),
		CORSOrigins:   splitList(env("CORS_ORIGINS", "*")),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	cfg.StoreDriver = os.Getenv("STORE_DRIVER")
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DriverSQLite
		if cfg.MongoURI != "" {
			cfg.StoreDriver = DriverMongo
		}
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = DevJWTSecret
		cfg.UsingDevSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first inconsistency in cfg.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo store driver")
		}
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite store driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
