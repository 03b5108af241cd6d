package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Analysis backend
	APIBaseURL  string
	HTTPTimeout time.Duration
	PageSize    int

	// Scope store (persisted analysis id)
	ScopeDBPath string

	// Filter options cache
	FilterCacheSize int
	FilterCacheTTL  time.Duration

	// AMQP (report export queue)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
}

func Load() *Config {
	cfg := &Config{
		APIBaseURL:  getEnv("BANKVIEW_API_URL", "http://localhost:8000/api"),
		HTTPTimeout: getEnvDuration("BANKVIEW_HTTP_TIMEOUT", 30*time.Second),
		PageSize:    getEnvInt("BANKVIEW_PAGE_SIZE", 50),

		ScopeDBPath: getEnv("BANKVIEW_DB_PATH", "./data/bankview.db"),

		FilterCacheSize: getEnvInt("FILTER_CACHE_SIZE", 16),
		FilterCacheTTL:  getEnvDuration("FILTER_CACHE_TTL", 24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bankview"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_reports"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate backend URL
	if parsed, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	} else if parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	}

	if c.PageSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at least 1", c.PageSize))
	} else if c.PageSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at most 1000", c.PageSize))
	}

	// Validate scope database path
	if c.ScopeDBPath == "" {
		errors = append(errors, "scope database path cannot be empty")
	} else {
		dir := filepath.Dir(c.ScopeDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create scope database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.FilterCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid filter cache size %d: must be at least 1", c.FilterCacheSize))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
