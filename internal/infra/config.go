package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	JWTSecret      string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	StoragePath    string
	StorageBaseURL string
	GeoIPDBPath    string

	SketchProvider string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string

	GoogleClientID string

	MaxBatchSize        int
	MaxItemBytes        int
	BatchConcurrency    int
	BatchMaxConcurrency int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
	DefaultLocale    string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),

		SketchProvider: getEnv("SKETCH_PROVIDER", "gemini"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),

		MaxBatchSize:        getEnvInt("MAX_BATCH_SIZE", 20),
		MaxItemBytes:        getEnvInt("MAX_ITEM_BYTES", 8*1024*1024),
		BatchConcurrency:    getEnvInt("BATCH_CONCURRENCY", 3),
		BatchMaxConcurrency: getEnvInt("BATCH_MAX_CONCURRENCY", 8),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("MAX_BATCH_SIZE must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
