package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string        `validate:"required"`
	ListenAddr      string        `validate:"required"`
	Environment     string        `validate:"oneof=development production test"`
	LogLevel        string        `validate:"oneof=debug info warn error"`
	QueryTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	RedisAddress  string
	RedisPassword string
	CacheTTL      time.Duration `validate:"gte=0"`

	EnableMetrics  bool
	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=1"`

	ImageHosts []string `validate:"dive,hostname_rfc1123"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; variables already set win.
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:     os.Getenv("DB_DSN"),
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		QueryTimeout:    getDuration("QUERY_TIMEOUT", 5*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		CacheTTL:        getDuration("CACHE_TTL", 0),
		EnableMetrics:   os.Getenv("ENABLE_METRICS") == "true",
		RateLimitBurst:  20,
		ImageHosts:      splitList(os.Getenv("IMAGE_HOSTS")),
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			config.RateLimitRPS = rps
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if burst, err := strconv.Atoi(v); err == nil {
			config.RateLimitBurst = burst
		}
	}

	return config
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.CacheTTL > 0 && c.RedisAddress == "" {
		return errors.New("CACHE_TTL is set but REDIS_ADDRESS is empty")
	}
	if c.QueryTimeout > time.Minute {
		return fmt.Errorf("QUERY_TIMEOUT must not exceed 1m, got %v", c.QueryTimeout)
	}
	return nil
}

// CacheEnabled reports whether the Redis read cache should be used.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddress != "" && c.CacheTTL > 0
}

// LoadAndValidate loads configuration and validates it.
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
