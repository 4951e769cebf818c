package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only meant for local development.
const DefaultJWTSecret = "dev-secret-change-me"

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host           string
		Port           string
		AllowedOrigins []string
		RequestTimeout time.Duration
	}

	GRPC struct {
		Host string
		Port string
	}

	Auth struct {
		JWTSecret string
		JWTIssuer string
		JWTTTL    time.Duration
		// RateLimit is the number of auth requests allowed per client IP per minute.
		RateLimit int
	}

	Matching struct {
		DiscoveryLimit int
	}
}

// New builds the config from the environment. A .env file in the working
// directory is loaded first when present; real env vars take precedence.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = strings.ToLower(getEnvDefault("APP_ENV", "development"))

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "api")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "pahilobhet")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "5000")
	cfg.HTTP.AllowedOrigins = splitList(getEnvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))
	cfg.HTTP.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 15*time.Second)

	// gRPC (health + reflection only)
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", DefaultJWTSecret)
	cfg.Auth.JWTIssuer = getEnvDefault("JWT_ISSUER", "pahilobhet-api")
	cfg.Auth.JWTTTL = getEnvDuration("JWT_TTL", 24*time.Hour)
	cfg.Auth.RateLimit = getEnvInt("AUTH_RATE_LIMIT", 20)

	// Matching
	cfg.Matching.DiscoveryLimit = getEnvInt("DISCOVERY_LIMIT", 10)

	return cfg
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.ENV == "development"
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && d > 0 {
		return d
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
