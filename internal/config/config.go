package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	// URLColumn is the input column holding product page URLs.
	URLColumn string
	// CheckpointEvery flushes the accumulator after this many successful
	// page extractions.
	CheckpointEvery int
	DelayMin        time.Duration
	DelayMax        time.Duration
	TitleTimeout    time.Duration
	StepTimeout     time.Duration
	RowsTimeout     time.Duration
	ScrollCycles    int
	ScrollPause     time.Duration
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type DatabaseConfig struct {
	// URL enables the Postgres archive when non-empty.
	URL      string
	MaxConns int32
}

type RedisConfig struct {
	// Addr enables lifecycle event publishing when non-empty.
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Scraper: ScraperConfig{
			URLColumn:       getEnvOrDefault("SCRAPER_URL_COLUMN", "product-image-link href"),
			CheckpointEvery: getIntOrDefault("SCRAPER_CHECKPOINT_EVERY", 10),
			DelayMin:        getDurationOrDefault("SCRAPER_DELAY_MIN", 3*time.Second),
			DelayMax:        getDurationOrDefault("SCRAPER_DELAY_MAX", 6*time.Second),
			TitleTimeout:    getDurationOrDefault("SCRAPER_TITLE_TIMEOUT", 15*time.Second),
			StepTimeout:     getDurationOrDefault("SCRAPER_STEP_TIMEOUT", 10*time.Second),
			RowsTimeout:     getDurationOrDefault("SCRAPER_ROWS_TIMEOUT", 30*time.Second),
			ScrollCycles:    getIntOrDefault("SCRAPER_SCROLL_CYCLES", 5),
			ScrollPause:     getDurationOrDefault("SCRAPER_SCROLL_PAUSE", 500*time.Millisecond),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/Detroit"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
		},
		Database: DatabaseConfig{
			URL:      getEnvOrDefault("DATABASE_URL", ""),
			MaxConns: int32(getIntOrDefault("DATABASE_MAX_CONNS", 4)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:fitment_lifecycle"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.URLColumn == "" {
		return fmt.Errorf("SCRAPER_URL_COLUMN must not be empty")
	}

	if c.Scraper.CheckpointEvery < 1 {
		return fmt.Errorf("SCRAPER_CHECKPOINT_EVERY must be at least 1")
	}

	if c.Scraper.DelayMin > c.Scraper.DelayMax {
		return fmt.Errorf("SCRAPER_DELAY_MIN cannot be greater than SCRAPER_DELAY_MAX")
	}

	if c.Scraper.ScrollCycles < 0 {
		return fmt.Errorf("SCRAPER_SCROLL_CYCLES cannot be negative")
	}

	return nil
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
