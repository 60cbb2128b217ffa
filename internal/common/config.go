package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Storage  StorageConfig
	Analyzer AnalyzerConfig
	Ingest   IngestConfig
	Archive  ArchiveConfig
}

// StorageConfig holds upload-storage configuration
type StorageConfig struct {
	RootDir   string
	ChunkSize int64
}

// AnalyzerConfig holds analysis-service configuration
type AnalyzerConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// IngestConfig holds directory-watcher configuration
type IngestConfig struct {
	WatchDir         string
	DebounceInterval time.Duration
	PollInterval     time.Duration
}

// ArchiveConfig holds archive database configuration
type ArchiveConfig struct {
	DSN string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			RootDir:   getEnv("STORAGE_DIR", "./storage"),
			ChunkSize: getEnvAsInt64("STORAGE_CHUNK_SIZE", 256<<10),
		},
		Analyzer: AnalyzerConfig{
			BaseURL:    getEnv("ANALYZER_URL", "http://localhost:8000"),
			APIKey:     getEnv("ANALYZER_API_KEY", ""),
			Timeout:    getEnvAsDuration("ANALYZER_TIMEOUT", 60*time.Second),
			MaxRetries: getEnvAsInt("ANALYZER_MAX_RETRIES", 2),
		},
		Ingest: IngestConfig{
			WatchDir:         getEnv("WATCH_DIR", ""),
			DebounceInterval: getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
			PollInterval:     getEnvAsDuration("WATCH_POLL_INTERVAL", 30*time.Second),
		},
		Archive: ArchiveConfig{
			DSN: getEnv("ARCHIVE_DSN", "file:meddocs.db?_pragma=busy_timeout(5000)"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Analyzer.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "ANALYZER_URL is required", ErrInvalidInput)
	}
	if c.Storage.RootDir == "" {
		return NewAppError("CONFIG_ERROR", "STORAGE_DIR is required", ErrInvalidInput)
	}
	if c.Archive.DSN == "" {
		return NewAppError("CONFIG_ERROR", "ARCHIVE_DSN is required", ErrInvalidInput)
	}
	return nil
}
