// Package config loads runtime settings from the environment and holds
// the domain limits shared by the services.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
)

// Config holds the settings read at startup.
type Config struct {
	Port           string
	Env            string
	DatabaseDriver string
	DatabaseURL    string
	DBMaxConns     int
	RedisURL       string
	JWTSecret      string
	SessionTTL     time.Duration
	AllowedOrigins []string
	SnowflakeNode  int64
}

// Load reads the configuration from environment variables, falling back to
// development defaults where a value is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    getEnv("DATABASE_URL", "host=localhost user=user password=password dbname=reputedb port=5432 sslmode=disable"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6380/0"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	var err error
	if cfg.DBMaxConns, err = strconv.Atoi(getEnv("DATABASE_MAX_CONNS", "25")); err != nil {
		return nil, errors.NotValidf("DATABASE_MAX_CONNS %q", os.Getenv("DATABASE_MAX_CONNS"))
	}
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", SessionDuration.String())); err != nil {
		return nil, errors.NotValidf("SESSION_TTL %q", os.Getenv("SESSION_TTL"))
	}
	if cfg.SnowflakeNode, err = strconv.ParseInt(getEnv("SNOWFLAKE_NODE", "1"), 10, 64); err != nil {
		return nil, errors.NotValidf("SNOWFLAKE_NODE %q", os.Getenv("SNOWFLAKE_NODE"))
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, errors.NotSupportedf("database driver %q", cfg.DatabaseDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.NotValidf("empty JWT_SECRET in production")
		}
		cfg.JWTSecret = "dev-only-secret"
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
