package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
)

// Model providers.
const (
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	DBPath    string
	UploadDir string

	StoreBackend     string
	QdrantURL        string
	QdrantCollection string

	EmbeddingProvider   string
	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingVectorSize int
	EmbeddingRateLimit  float64

	LLMProvider  string
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	ExternalTimeout    time.Duration
	ExternalMaxRetries int
	ScoringWorkers     int

	TuningFile string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// A .env file in the current directory or up to four parents is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "3001"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DBPath:             getEnv("DB_PATH", "./data/docqa.db"),
		UploadDir:          getEnv("UPLOAD_DIR", "./data/uploads"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "documents"),
		EmbeddingProvider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderOpenAI)),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:          getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		TuningFile:         getEnv("RETRIEVAL_TUNING_FILE", ""),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.EmbeddingVectorSize, err = getInt("EMBEDDING_VECTOR_SIZE", 1536); err != nil {
		return nil, err
	}
	if cfg.EmbeddingVectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	if cfg.EmbeddingRateLimit, err = getFloat("EMBEDDING_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.ExternalTimeout, err = getDuration("EXTERNAL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ExternalMaxRetries, err = getInt("EXTERNAL_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.ExternalMaxRetries < 0 {
		return nil, fmt.Errorf("EXTERNAL_MAX_RETRIES must not be negative")
	}
	if cfg.ScoringWorkers, err = getInt("SCORING_WORKERS", 0); err != nil {
		return nil, err
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.StoreBackend != BackendSQLite && cfg.StoreBackend != BackendQdrant {
		return nil, fmt.Errorf("STORE_BACKEND must be %s or %s, got %q", BackendSQLite, BackendQdrant, cfg.StoreBackend)
	}
	if err := validateProvider("EMBEDDING_PROVIDER", cfg.EmbeddingProvider, cfg.EmbeddingBaseURL); err != nil {
		return nil, err
	}
	if err := validateProvider("LLM_PROVIDER", cfg.LLMProvider, cfg.LLMBaseURL); err != nil {
		return nil, err
	}

	// Create ./data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads the first .env found walking up from the working directory.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// validateProvider checks a provider name. The http provider has no default endpoint.
func validateProvider(key, provider, baseURL string) error {
	switch provider {
	case ProviderOpenAI:
		return nil
	case ProviderHTTP:
		if baseURL == "" {
			return fmt.Errorf("%s=%s requires a base URL", key, provider)
		}
		return nil
	default:
		return fmt.Errorf("%s must be %s or %s, got %q", key, ProviderOpenAI, ProviderHTTP, provider)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
