// Package config loads the analyzer configuration from environment
// variables. Every setting has a default except the analysis service API
// key, which only the analyze command requires.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the call analyzer.
type Config struct {
	Database DatabaseConfig
	AI       AIConfig
	Pipeline PipelineConfig
	Export   ExportConfig
	LogLevel string
}

type DatabaseConfig struct {
	Path           string
	MaxConnections int
	AcquireTimeout time.Duration
}

type AIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxRetries   int
	Timeout      time.Duration
	RateLimitRPM int
	// FailFast stops retrying on authentication/authorization errors
	// instead of spending the full retry budget on them.
	FailFast bool
	// RetryBackoffBase seeds the exponential schedule for transient errors.
	RetryBackoffBase time.Duration
	// ParseRetryBackoff is the fixed wait after a malformed-JSON response.
	ParseRetryBackoff time.Duration
}

type PipelineConfig struct {
	BatchSize      int
	MaxPromptChars int
}

type ExportConfig struct {
	Dir        string
	BackupsDir string
}

// Load reads configuration from environment variables and returns a
// validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Path:           envString("CALL_ANALYZER_DB_PATH", "./call_analysis.db"),
			MaxConnections: envInt("DB_MAX_CONNECTIONS", 5),
			AcquireTimeout: envDuration("DB_ACQUIRE_TIMEOUT", 30*time.Second),
		},
		AI: AIConfig{
			APIKey:            os.Getenv("OPENAI_API_KEY"),
			BaseURL:           envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:             envString("OPENAI_MODEL", "gpt-4o"),
			MaxRetries:        envInt("MAX_RETRIES", 3),
			Timeout:           envDurationSecs("AI_TIMEOUT_SECS", 60*time.Second),
			RateLimitRPM:      envInt("RATE_LIMIT_RPM", 3),
			FailFast:          envBool("AI_FAIL_FAST", false),
			RetryBackoffBase:  envDuration("AI_RETRY_BACKOFF_BASE", 5*time.Second),
			ParseRetryBackoff: envDuration("AI_PARSE_RETRY_BACKOFF", 2*time.Second),
		},
		Pipeline: PipelineConfig{
			BatchSize:      envInt("BATCH_SIZE", 10),
			MaxPromptChars: envInt("MAX_PROMPT_CHARS", 8000),
		},
		Export: ExportConfig{
			Dir:        envString("CALL_ANALYZER_EXPORT_DIR", "./exports"),
			BackupsDir: envString("CALL_ANALYZER_BACKUPS_DIR", "./backups"),
		},
		LogLevel: envString("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("CALL_ANALYZER_DB_PATH must not be empty")
	}
	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1, got %d", c.Database.MaxConnections)
	}
	if c.AI.RateLimitRPM < 1 {
		return fmt.Errorf("RATE_LIMIT_RPM must be at least 1, got %d", c.AI.RateLimitRPM)
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.AI.MaxRetries)
	}
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.MaxPromptChars < 100 {
		return fmt.Errorf("MAX_PROMPT_CHARS must be at least 100, got %d", c.Pipeline.MaxPromptChars)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
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

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
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

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
