package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "DB_PATH", "UPLOAD_DIR",
	"STORE_BACKEND", "QDRANT_URL", "QDRANT_COLLECTION",
	"EMBEDDING_PROVIDER", "EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
	"EMBEDDING_VECTOR_SIZE", "EMBEDDING_RATE_LIMIT",
	"LLM_PROVIDER", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "OPENAI_API_KEY",
	"EXTERNAL_TIMEOUT", "EXTERNAL_MAX_RETRIES", "SCORING_WORKERS", "RETRIEVAL_TUNING_FILE",
}

// isolateEnv clears every config variable and moves to an empty working
// directory so no .env file is picked up. Both are restored on cleanup.
func isolateEnv(t *testing.T) string {
	t.Helper()
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}

	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir) // Ignore error - test will fail if this doesn't work

	t.Cleanup(func() {
		_ = os.Chdir(originalWd) // Ignore error in cleanup
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
	return tmpDir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:     "default values",
			setupEnv: func(t *testing.T) {},
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "3001" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.DBPath == "./data/docqa.db" &&
					cfg.UploadDir == "./data/uploads" &&
					cfg.StoreBackend == BackendSQLite &&
					cfg.QdrantCollection == "documents" &&
					cfg.EmbeddingProvider == ProviderOpenAI &&
					cfg.EmbeddingModelName == "text-embedding-3-small" &&
					cfg.EmbeddingVectorSize == 1536 &&
					cfg.LLMModelName == "gpt-4o-mini" &&
					cfg.ExternalTimeout == 30*time.Second &&
					cfg.ExternalMaxRetries == 2 &&
					cfg.ScoringWorkers == 0
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				setEnv("API_PORT", "8080")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "JSON")
				setEnv("STORE_BACKEND", "qdrant")
				setEnv("EMBEDDING_PROVIDER", "http")
				setEnv("EMBEDDING_BASE_URL", "http://localhost:8081")
				setEnv("EMBEDDING_VECTOR_SIZE", "768")
				setEnv("EMBEDDING_RATE_LIMIT", "2.5")
				setEnv("LLM_PROVIDER", "http")
				setEnv("LLM_BASE_URL", "http://localhost:8080")
				setEnv("EXTERNAL_TIMEOUT", "5s")
				setEnv("EXTERNAL_MAX_RETRIES", "0")
				setEnv("SCORING_WORKERS", "4")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "custom", "db.db"))
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "8080" &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json" &&
					cfg.StoreBackend == BackendQdrant &&
					cfg.EmbeddingProvider == ProviderHTTP &&
					cfg.EmbeddingVectorSize == 768 &&
					cfg.EmbeddingRateLimit == 2.5 &&
					cfg.ExternalTimeout == 5*time.Second &&
					cfg.ExternalMaxRetries == 0 &&
					cfg.ScoringWorkers == 4 &&
					filepath.Base(cfg.DBPath) == "db.db" // Just check filename, path will vary with temp dir
			},
		},
		{
			name: "LLM_API_KEY falls back to OPENAI_API_KEY",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-openai")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMAPIKey == "sk-openai"
			},
		},
		{
			name: "LLM_API_KEY takes precedence",
			setupEnv: func(t *testing.T) {
				setEnv("OPENAI_API_KEY", "sk-openai")
				setEnv("LLM_API_KEY", "sk-llm")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMAPIKey == "sk-llm"
			},
		},
		{
			name:     "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) { setEnv("LOG_LEVEL", "verbose") },
			wantErr:  true,
		},
		{
			name:     "invalid LOG_FORMAT",
			setupEnv: func(t *testing.T) { setEnv("LOG_FORMAT", "xml") },
			wantErr:  true,
		},
		{
			name:     "invalid STORE_BACKEND",
			setupEnv: func(t *testing.T) { setEnv("STORE_BACKEND", "postgres") },
			wantErr:  true,
		},
		{
			name:     "invalid EMBEDDING_VECTOR_SIZE",
			setupEnv: func(t *testing.T) { setEnv("EMBEDDING_VECTOR_SIZE", "invalid") },
			wantErr:  true,
		},
		{
			name:     "zero EMBEDDING_VECTOR_SIZE",
			setupEnv: func(t *testing.T) { setEnv("EMBEDDING_VECTOR_SIZE", "0") },
			wantErr:  true,
		},
		{
			name:     "invalid EXTERNAL_TIMEOUT",
			setupEnv: func(t *testing.T) { setEnv("EXTERNAL_TIMEOUT", "soon") },
			wantErr:  true,
		},
		{
			name:     "negative EXTERNAL_MAX_RETRIES",
			setupEnv: func(t *testing.T) { setEnv("EXTERNAL_MAX_RETRIES", "-1") },
			wantErr:  true,
		},
		{
			name:     "http embedding provider without base URL",
			setupEnv: func(t *testing.T) { setEnv("EMBEDDING_PROVIDER", "http") },
			wantErr:  true,
		},
		{
			name:     "unknown LLM provider",
			setupEnv: func(t *testing.T) { setEnv("LLM_PROVIDER", "ollama") },
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolateEnv(t)

	dbPath := filepath.Join(t.TempDir(), "test", "db.db")
	setEnv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check that directory was created
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}

	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestLoad_DotEnvInParent(t *testing.T) {
	root := isolateEnv(t)

	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("API_PORT=4000\nLLM_MODEL=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	sub := filepath.Join(root, "cmd", "api")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_ = os.Chdir(sub)
	setEnv("LLM_MODEL", "from-env")
	setEnv("DB_PATH", filepath.Join(root, "data", "db.db"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "4000" {
		t.Errorf("Load() APIPort = %q, want value from .env", cfg.APIPort)
	}
	if cfg.LLMModelName != "from-env" {
		t.Errorf("Load() LLMModelName = %q, environment should win over .env", cfg.LLMModelName)
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}
