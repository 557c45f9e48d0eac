package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIBaseURL    = "http://localhost:8081/api/v1/"
	defaultConsoleAddr   = ":8080"
	defaultMockAPIAddr   = ":8081"
	defaultTokenStore    = "sqlite"
	defaultTokenStoreDSN = "console.db"
	defaultDatabaseURL   = "mockapi.db"
	defaultCacheBackend  = "memory"
	defaultCacheTTL      = "5m"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultJWTTTL        = "24h"
	defaultUploadDir     = "./uploads"
	defaultDraftMaxAge   = "72h"
	defaultLogLevel      = "info"
	defaultAdminEmail    = "admin@anycomp.local"
	defaultAdminPass     = "admin12345"
)

type Config struct {
	AppEnv   string
	LogLevel string

	// console
	APIBaseURL    string
	ConsoleAddr   string
	TokenStore    string // sqlite | postgres | memory
	TokenStoreDSN string
	CacheBackend  string // memory | redis
	CacheTTL      time.Duration
	RedisURL      string
	MaxFiles      int
	MinFiles      int
	CORSOrigins   []string

	// reference backend
	MockAPIAddr string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	UploadDir   string
	DraftMaxAge time.Duration

	// seed
	AdminEmail    string
	AdminPassword string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))

	cfg.APIBaseURL = strings.TrimSpace(getEnv("API_BASE_URL", defaultAPIBaseURL))
	cfg.ConsoleAddr = strings.TrimSpace(getEnv("CONSOLE_ADDR", defaultConsoleAddr))
	cfg.TokenStore = strings.ToLower(strings.TrimSpace(getEnv("TOKEN_STORE", defaultTokenStore)))
	cfg.TokenStoreDSN = strings.TrimSpace(getEnv("TOKEN_STORE_DSN", defaultTokenStoreDSN))
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(getEnv("CACHE_BACKEND", defaultCacheBackend)))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.MockAPIAddr = strings.TrimSpace(getEnv("MOCKAPI_ADDR", defaultMockAPIAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))
	cfg.AdminEmail = strings.TrimSpace(getEnv("ADMIN_EMAIL", defaultAdminEmail))
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", defaultAdminPass)

	var err error
	cfg.CacheTTL, err = parseDurationEnv("CACHE_TTL", defaultCacheTTL)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}
	cfg.DraftMaxAge, err = parseDurationEnv("DRAFT_MAX_AGE", defaultDraftMaxAge)
	if err != nil {
		return nil, err
	}

	cfg.MaxFiles, err = parseIntEnv("UPLOAD_MAX_FILES", 3)
	if err != nil {
		return nil, err
	}
	cfg.MinFiles, err = parseIntEnv("UPLOAD_MIN_FILES", 1)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}
	switch cfg.TokenStore {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("TOKEN_STORE must be one of: sqlite, postgres, memory")
	}
	if cfg.TokenStore != "memory" && cfg.TokenStoreDSN == "" {
		return fmt.Errorf("TOKEN_STORE_DSN must not be empty")
	}
	switch cfg.CacheBackend {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis")
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0")
	}
	if cfg.MaxFiles <= 0 || cfg.MinFiles < 1 || cfg.MinFiles > cfg.MaxFiles {
		return fmt.Errorf("UPLOAD_MIN_FILES must be between 1 and UPLOAD_MAX_FILES")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.DraftMaxAge <= 0 {
		return fmt.Errorf("DRAFT_MAX_AGE must be > 0")
	}
	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.AdminPassword, defaultAdminPass) {
		return fmt.Errorf("in prod/release ADMIN_PASSWORD must be set and not default")
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
