package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	LogLevel              string
	DBPath                string
	DBDriver              string
	DBPingTimeout         time.Duration
	RedisAddr             string
	GRPCPort              int
	GRPCReflectionEnabled bool
	CacheTTL              time.Duration
	FixturesPath          string
}

// Load reads the given dotenv files (missing files are ignored) and then
// the environment. Variables already set in the environment win.
func Load(files ...string) *Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables. Malformed
// values fall back to their defaults.
func LoadFromEnv() *Config {
	port, err := strconv.Atoi(getEnv("GRPC_PORT", "50051"))
	if err != nil {
		port = 50051
	}

	reflection, err := strconv.ParseBool(getEnv("GRPC_REFLECTION_ENABLED", "false"))
	if err != nil {
		reflection = false
	}

	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	if err != nil || ttl <= 0 {
		ttl = 10 * time.Minute
	}

	pingTimeout, err := time.ParseDuration(getEnv("DB_PING_TIMEOUT", "5s"))
	if err != nil || pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}

	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		DBPath:                getEnv("DB_PATH", "./data/insights.db"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		DBPingTimeout:         pingTimeout,
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		GRPCPort:              port,
		GRPCReflectionEnabled: reflection,
		CacheTTL:              ttl,
		FixturesPath:          os.Getenv("FIXTURES_PATH"),
	}
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// NewLogger creates a new Zap logger based on the config. LOG_LEVEL, when
// set, overrides the environment's default level.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.AppEnv == "production" {
		zc = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	return zc.Build()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
