// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// NewsAPI settings
	NewsAPIKey         string
	NewsAPIBaseURL     string
	NewsCountry        string
	NewsPageSize       int
	MaxNewsAPIRequests int // daily budget (0 = unlimited)

	// RSS fallback, used when NewsAPIKey is empty
	FeedsConfigPath string

	// Scorer settings
	ScorerConfigPath string // optional YAML override of the keyword table
	RandomSeed       uint64 // 0 = process-wide source
	HasRandomSeed    bool

	// Gemini settings
	GeminiAPIKey      string
	GeminiModel       string
	MaxGeminiRequests int // daily budget (0 = unlimited)

	// Telegram settings
	TelegramToken  string
	TelegramChatID string

	// Scraper settings
	ScrapeConcurrency int
	SummarySentences  int

	// App settings
	Debug          bool
	LogFormat      string
	HTTPAddr       string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration

	// Cache settings
	CacheTTL time.Duration

	// History settings
	HistoryDSN string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		NewsAPIBaseURL:     "https://newsapi.org",
		NewsCountry:        "us",
		NewsPageSize:       15,
		MaxNewsAPIRequests: 100,
		FeedsConfigPath:    "configs/feeds.yaml",
		GeminiModel:        "gemini-1.5-flash",
		MaxGeminiRequests:  20,
		ScrapeConcurrency:  4,
		SummarySentences:   5,
		HTTPAddr:           ":8080",
		RequestTimeout:     15 * time.Second,
		RetryAttempts:      3,
		RetryDelay:         2 * time.Second,
		CacheTTL:           15 * time.Minute,
	}

	// Load from environment
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.ScorerConfigPath = os.Getenv("SCORER_CONFIG_PATH")
	cfg.HistoryDSN = os.Getenv("HISTORY_DSN")
	cfg.LogFormat = os.Getenv("LOG_FORMAT")

	cfg.NewsAPIBaseURL = strings.TrimRight(getEnvOrDefault("NEWSAPI_BASE_URL", cfg.NewsAPIBaseURL), "/")
	cfg.NewsCountry = getEnvOrDefault("NEWS_COUNTRY", cfg.NewsCountry)
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.HTTPAddr = getEnvOrDefault("HTTP_ADDR", cfg.HTTPAddr)

	if v := os.Getenv("NEWS_PAGE_SIZE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 && val <= 100 {
			cfg.NewsPageSize = val
		}
	}
	cfg.MaxNewsAPIRequests = getEnvIntOrDefault("MAX_NEWSAPI_REQUESTS", cfg.MaxNewsAPIRequests)
	cfg.MaxGeminiRequests = getEnvIntOrDefault("MAX_GEMINI_REQUESTS", cfg.MaxGeminiRequests)

	if v := os.Getenv("SCRAPE_CONCURRENCY"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.ScrapeConcurrency = val
		}
	}
	if v := os.Getenv("SUMMARY_SENTENCES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.SummarySentences = val
		}
	}
	if v := os.Getenv("RETRY_ATTEMPTS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RetryAttempts = val
		}
	}
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)

	if v := os.Getenv("CACHE_TTL_MINUTES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.CacheTTL = time.Duration(val) * time.Minute
		}
	}

	if v := os.Getenv("RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("RANDOM_SEED must be an unsigned integer: %w", err)
		}
		cfg.RandomSeed = seed
		cfg.HasRandomSeed = true
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("1500ms") or whole seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// Validate checks settings every command needs. Command-specific
// requirements (Telegram credentials) are checked by RequireTelegram.
func (c *Config) Validate() error {
	if c.NewsAPIKey == "" && c.FeedsConfigPath == "" {
		return fmt.Errorf("either NEWSAPI_KEY or FEEDS_CONFIG_PATH is required")
	}
	if len(c.NewsCountry) != 2 {
		return fmt.Errorf("NEWS_COUNTRY must be a two-letter code, got %q", c.NewsCountry)
	}
	if c.MaxNewsAPIRequests < 0 || c.MaxGeminiRequests < 0 {
		return fmt.Errorf("request budgets must not be negative")
	}
	return nil
}

// RequireTelegram reports missing Telegram credentials.
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	return nil
}
