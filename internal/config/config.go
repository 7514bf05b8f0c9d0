package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	defaultJWTSecret = "dev-secret-change-me"
)

type Config struct {
	Env  string
	Port int

	StoreDriver string
	DBURL       string
	DBMigrate   bool
	MongoURI    string
	MongoDB     string

	JWTSecret  string
	BcryptCost int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	FeedCacheTTL  time.Duration

	CORSAllowedOrigins  []string
	AuthRateLimitPerMin int
	MaxBodyBytes        int64
	OTLPEndpoint        string
	ServiceName         string

	WorkerPollInterval time.Duration
	WorkerConcurrency  int
	WorkerHealthPort   int
}

func Load() Config {
	// a missing .env is the normal case outside local dev
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBURL:       buildDBURL(),
		DBMigrate:   getEnvBool("DB_MIGRATE", true),
		MongoURI:    getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:     getEnv("MONGO_DB", "ciaan"),

		JWTSecret:  getEnv("JWT_SECRET", defaultJWTSecret),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		FeedCacheTTL:  time.Duration(getEnvInt("FEED_CACHE_TTL_SECONDS", 5)) * time.Second,

		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 20),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:         getEnv("OTEL_SERVICE_NAME", "ciaan-api"),

		WorkerPollInterval: time.Duration(getEnvInt("WORKER_POLL_INTERVAL_MS", 250)) * time.Millisecond,
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerHealthPort:   getEnvInt("WORKER_HEALTH_PORT", 8081),
	}
}

// Validate reports configuration that must not reach a running server.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.IsProd() {
		if c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be set to at least 32 characters in prod")
		}
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is empty")
	}

	return nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "ciaan")
	pass := getEnv("DB_PASSWORD", "ciaan")
	name := getEnv("DB_NAME", "ciaan")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
