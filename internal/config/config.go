package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	Port           int
	DBURL          string
	JWTSecret      string
	JWTTTLDays     int
	AllowedOrigins []string
	OTLPEndpoint   string
	MaxBodyBytes   int64
}

func Load() Config {
	// optional .env for local development; real deployments set the environment
	_ = godotenv.Load()

	return Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           getEnvInt("PORT", 5000),
		DBURL:          buildDBURL(),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTLDays:     getEnvInt("JWT_TTL_DAYS", 7),
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

func buildDBURL() string {
	// a full DATABASE_URL wins over the individual parts
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "quickcook")
	pass := getEnv("DB_PASSWORD", "quickcook")
	name := getEnv("DB_NAME", "quickcook")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// TokenTTL is how long an issued identity token stays valid.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLDays) * 24 * time.Hour
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
			return fallback
		}

		return num
	}
	return fallback
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
