package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Remote inventory API.
	APIBaseURL     string
	AuthMode       string // "cookie" or "bearer"
	AuthToken      string // bearer token, when AuthMode is "bearer"
	Email          string
	Password       string
	RequestTimeout time.Duration

	// Local durable cache.
	CachePath string

	// Policies left open by the product: whether deleting an item also purges
	// its remote transaction history, and whether stock adjustments clamp at
	// zero instead of allowing negative quantities.
	PurgeTransactionsOnDelete bool
	ClampNegativeStock        bool

	LogLevel string
	LogFile  string
}

func Load() *Config {
	// A missing .env file is fine; explicit environment always wins.
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:                getEnv("API_BASE_URL", "http://localhost:3000/api"),
		AuthMode:                  getEnv("AUTH_MODE", "cookie"),
		AuthToken:                 getEnv("AUTH_TOKEN", ""),
		Email:                     getEnv("AUTH_EMAIL", ""),
		Password:                  getEnv("AUTH_PASSWORD", ""),
		RequestTimeout:            getDuration("REQUEST_TIMEOUT", 15*time.Second),
		CachePath:                 getEnv("CACHE_PATH", "/data/stocksync.db"),
		PurgeTransactionsOnDelete: getBool("PURGE_TXNS_ON_DELETE", false),
		ClampNegativeStock:        getBool("CLAMP_NEGATIVE_STOCK", false),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		LogFile:                   getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
