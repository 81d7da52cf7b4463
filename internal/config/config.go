package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge int

	// Checkout
	CheckoutTimeout time.Duration

	// Rate Limit
	RateLimitGeneral  int
	RateLimitCheckout int

	// Rating API
	RatingAPIKey           string
	RatingAPIHost          string
	RatingTTL              time.Duration
	RatingBatchInterval    time.Duration
	RatingAPIInterval      time.Duration
	RatingMaxCallsPerCycle int

	// Cleanup
	CartRetentionDays int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.CheckoutTimeout = getEnvDuration("CHECKOUT_TIMEOUT", 5*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCheckout = getEnvInt("RATE_LIMIT_CHECKOUT", 10)
	cfg.RatingAPIKey = getEnvString("RATING_API_KEY", "")
	cfg.RatingAPIHost = getEnvString("RATING_API_HOST", "real-time-amazon-data.p.rapidapi.com")
	cfg.RatingTTL = getEnvDuration("RATING_TTL", 24*time.Hour)
	cfg.RatingBatchInterval = getEnvDuration("RATING_BATCH_INTERVAL", 10*time.Minute)
	cfg.RatingAPIInterval = getEnvDuration("RATING_API_INTERVAL", 5*time.Second)
	cfg.RatingMaxCallsPerCycle = getEnvInt("RATING_MAX_CALLS_PER_CYCLE", 100)
	cfg.CartRetentionDays = getEnvInt("CART_RETENTION_DAYS", 90)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.ServerPort)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
