package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Session  SessionConfig
	Live     LiveConfig
	Tracing  TracingConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	Port          string
	Env           string
	GinMode       string
	HTTPRateLimit int
	AllowOrigin   string
	// TrustedProxies lists the proxies whose forwarding headers are honoured
	// when resolving the client IP. Empty trusts none.
	TrustedProxies []string
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type SessionConfig struct {
	TokenSecret           string
	TTL                   time.Duration
	RateLimit             int64
	RateWindow            time.Duration
	SuspiciousAccessCount int64
}

type LiveConfig struct {
	LogMaxLen    int64
	PollInterval time.Duration
	Buffer       int
	Heartbeat    time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	Tables        int
}

// Load reads configuration from the environment, loading .env first when
// present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("ENV", "development"),
			GinMode:        getEnv("GIN_MODE", "debug"),
			HTTPRateLimit:  getInt("HTTP_RATE_LIMIT", 50),
			AllowOrigin:    getEnv("CORS_ALLOW_ORIGIN", ""),
			TrustedProxies: getList("TRUSTED_PROXIES"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DATABASE_DSN", "bar.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-staff-secret"),
		},
		Session: SessionConfig{
			TokenSecret:           getEnv("TABLE_TOKEN_SECRET", "dev-table-secret"),
			TTL:                   getDuration("TABLE_SESSION_TTL", 6*time.Hour),
			RateLimit:             int64(getInt("VERIFY_RATE_LIMIT", 5)),
			RateWindow:            getDuration("VERIFY_RATE_WINDOW", time.Minute),
			SuspiciousAccessCount: int64(getInt("SESSION_SUSPICION_THRESHOLD", 100)),
		},
		Live: LiveConfig{
			LogMaxLen:    int64(getInt("EVENT_LOG_MAX_LEN", 1000)),
			PollInterval: getDuration("EVENT_POLL_INTERVAL", 250*time.Millisecond),
			Buffer:       getInt("EVENT_SUBSCRIBER_BUFFER", 64),
			Heartbeat:    getDuration("EVENT_HEARTBEAT", 25*time.Second),
		},
		Tracing: TracingConfig{
			Enabled:  getBool("TRACING_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			Tables:        getInt("SEED_TABLES", 10),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}
