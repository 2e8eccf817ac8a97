package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP
	Port               string
	FrontendURL        string
	RateLimitPerMinute int

	// Sessions
	JWTSecret string
	TokenTTL  time.Duration

	// Storage
	DataBackend       string
	DatabaseURL       string
	DataEncryptionKey string

	// Events
	AMQPURL      string
	AMQPExchange string

	// Logging
	LogLevel    string
	Environment string

	// Values that were set but could not be parsed; Validate reports them.
	loadProblems []string
}

// Load reads the environment. Malformed numeric values fall back to their
// default and are reported by Validate.
func Load() *Config {
	c := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DataBackend:       getEnv("DATA_BACKEND", "memory"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DataEncryptionKey: getEnv("DATA_ENCRYPTION_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bizpanel"),

		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		Environment: getEnv("ENV", "development"),
	}
	c.RateLimitPerMinute = c.getEnvInt("RATE_LIMIT_PER_MINUTE", 100)
	c.TokenTTL = c.getEnvDuration("TOKEN_TTL", 24*time.Hour)
	return c
}

// IsProduction reports whether logs must mask sensitive values.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate returns every configuration problem in a single error.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.loadProblems...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
	}

	switch c.DataBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when using the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [memory postgres]", c.DataBackend))
	}

	if c.DataEncryptionKey != "" && len(c.DataEncryptionKey) != 32 {
		problems = append(problems, "DATA_ENCRYPTION_KEY must be exactly 32 characters")
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		c.loadProblems = append(c.loadProblems, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.loadProblems = append(c.loadProblems, fmt.Sprintf("invalid %s '%s': must be a duration like 24h", key, value))
		return defaultValue
	}
	return d
}
