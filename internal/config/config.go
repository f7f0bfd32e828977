package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPPort              string
	ProviderURL           string
	ProviderDomain        string
	ProviderTimeout       time.Duration
	CacheTTL              time.Duration
	DetailsCacheSize      int
	CacheSweepInterval    time.Duration
	ScrapeTimeout         time.Duration
	DefaultCurrency       string
	DatabaseURL           string
	LogLevel              slog.Level
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
// Variables in a .env file in the working directory are applied first
// without overriding the real environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	return Config{
		HTTPPort:              envOrDefault("HTTP_PORT", "8000"),
		ProviderURL:           envOrDefault("PROVIDER_URL", "http://localhost:8001"),
		ProviderDomain:        envOrDefault("PROVIDER_DOMAIN", "www.airbnb.com.br"),
		ProviderTimeout:       envOrDefaultDuration("PROVIDER_TIMEOUT", 30*time.Second),
		CacheTTL:              envOrDefaultDuration("CACHE_TTL", time.Hour),
		DetailsCacheSize:      envOrDefaultInt("DETAILS_CACHE_SIZE", 100),
		CacheSweepInterval:    envOrDefaultDuration("CACHE_SWEEP_INTERVAL", 0),
		ScrapeTimeout:         envOrDefaultDuration("SCRAPE_TIMEOUT", 10*time.Second),
		DefaultCurrency:       strings.ToUpper(envOrDefault("DEFAULT_CURRENCY", "USD")),
		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		LogLevel:              envOrDefaultLevel("LOG_LEVEL", slog.LevelInfo),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("invalid log level env var, using default", "key", key, "value", v, "default", defaultVal)
		return defaultVal
	}
	return level
}
