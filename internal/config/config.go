// Package config loads console settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendBigQuery = "bigquery"
	BackendBolt     = "bolt"
)

// DefaultMaxDocumentBytes is the statement size limit advertised to users (10 MiB).
const DefaultMaxDocumentBytes int64 = 10 << 20

// Config represents the application configuration.
type Config struct {
	Port     string
	LogLevel string

	// CORSOrigin is the origin allowed to call the API; "*" allows any.
	CORSOrigin string

	StoreBackend string
	BoltPath     string

	BigQuery BigQueryConfig
	GCS      GCSConfig
	Gemini   GeminiConfig

	MaxDocumentBytes int64
}

// BigQueryConfig locates the dataset holding categories and transactions.
type BigQueryConfig struct {
	ProjectID string
	Dataset   string
}

// GCSConfig controls archiving of uploaded statements.
type GCSConfig struct {
	Bucket string
}

// GeminiConfig controls category suggestions.
type GeminiConfig struct {
	Enabled bool
	Model   string
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read when present; an explicit
// envPath must exist.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	maxBytes, err := parseInt64Env("MAX_DOCUMENT_BYTES", DefaultMaxDocumentBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_DOCUMENT_BYTES: %w", err)
	}

	geminiEnabled, err := parseBoolEnv("GEMINI_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("invalid GEMINI_ENABLED: %w", err)
	}

	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		CORSOrigin:   getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),
		StoreBackend: strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendBolt)),
		BoltPath:     getEnvOrDefault("BOLT_PATH", "console.db"),
		BigQuery: BigQueryConfig{
			ProjectID: os.Getenv("GCP_PROJECT_ID"),
			Dataset:   getEnvOrDefault("BIGQUERY_DATASET", "finance"),
		},
		GCS: GCSConfig{
			Bucket: os.Getenv("GCS_BUCKET"),
		},
		Gemini: GeminiConfig{
			Enabled: geminiEnabled,
			Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		MaxDocumentBytes: maxBytes,
	}

	return cfg, nil
}

// Validate checks that the settings required by the selected backend are present.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendBigQuery:
		if c.BigQuery.ProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required for the %s backend", BackendBigQuery)
		}
		if c.BigQuery.Dataset == "" {
			return fmt.Errorf("BIGQUERY_DATASET is required for the %s backend", BackendBigQuery)
		}
	case BackendBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("BOLT_PATH is required for the %s backend", BackendBolt)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.StoreBackend, BackendBigQuery, BackendBolt)
	}

	if c.MaxDocumentBytes <= 0 {
		return fmt.Errorf("MAX_DOCUMENT_BYTES must be positive, got %d", c.MaxDocumentBytes)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64Env(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(value)
}
