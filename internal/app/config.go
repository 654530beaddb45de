package app

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokenkit/pkg/httpx"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	Root            string   // Directory searched for profile files and certificates (default: .)
	ProfilePatterns []string // Profile file name patterns (default: token*.yaml, token*.yml, token*.json)

	StoreDriver     string        // sqlite or redis (default: sqlite)
	DatabaseFile    string        // SQLite file (default: <root>/db/tokens.db)
	RedisAddr       string        // Redis address (default: localhost:6379)
	RedisPrefix     string        // Redis key prefix (default: tokenkit:state:)
	CleanupInterval time.Duration // Periodic state cleanup, 0 runs it at startup only (default: 0)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	LogOutput io.Writer

	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	IssueLimit          httpx.RateLimitConfig
}

func LoadConfig() Config {
	cfg := Config{
		Root:                getEnvOrDefault("TOKENKIT_ROOT", "."),
		ProfilePatterns:     getEnvListOrDefault("TOKENKIT_PROFILE_PATTERN", profile.DefaultPatterns),
		StoreDriver:         strings.ToLower(getEnvOrDefault("TOKENKIT_STORE_DRIVER", DriverSQLite)),
		DatabaseFile:        os.Getenv("TOKENKIT_DATABASE_FILE"),
		RedisAddr:           getEnvOrDefault("TOKENKIT_REDIS_ADDR", "localhost:6379"),
		RedisPrefix:         os.Getenv("TOKENKIT_REDIS_PREFIX"),
		CleanupInterval:     getEnvDurationOrDefault("TOKENKIT_CLEANUP_INTERVAL", 0),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		IssueLimit:          httpx.RateLimitFromEnv("issue", httpx.IssueLimit),
	}
	return cfg
}

// DatabasePath is the SQLite file the sqlite driver opens.
func (c Config) DatabasePath() string {
	if c.DatabaseFile != "" {
		return c.DatabaseFile
	}
	return filepath.Join(c.Root, "db", "tokens.db")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
