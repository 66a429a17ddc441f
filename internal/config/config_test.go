package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aller-discovery/internal/discovery"
)

var envVars = []string{
	"LOG_LEVEL", "LOG_FORMAT", "API_PORT",
	"DB_DRIVER", "DB_PATH", "DATABASE_URL",
	"QDRANT_URL", "QDRANT_API_KEY", "QDRANT_VECTOR_SIZE",
	"QDRANT_BRAND_COLLECTION", "QDRANT_PRODUCT_COLLECTION",
	"QDRANT_INGREDIENT_COLLECTION", "QDRANT_FEATURE_COLLECTION",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME", "EMBEDDING_API_KEY", "EMBEDDING_DIMENSIONS",
	"ANALYZER_ENABLED", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "EMBED_CACHE_TTL",
	"SEARCH_FEATURE_TOP_K", "SEARCH_RESULT_LIMIT", "SEARCH_PRODUCT_CANDIDATES",
	"SEARCH_FEATURE_FAILURE_POLICY", "SEARCH_TIMEOUT",
	"CATEGORY_VOCAB_PATH", "INDEX_WORKERS",
}

// isolateEnv clears every config variable for the test and runs it from an
// empty directory so no .env file is picked up.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name:    "missing QDRANT_VECTOR_SIZE",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:    "invalid QDRANT_VECTOR_SIZE",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "invalid"},
			wantErr: true,
		},
		{
			name:    "zero QDRANT_VECTOR_SIZE",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "0"},
			wantErr: true,
		},
		{
			name:    "negative QDRANT_VECTOR_SIZE",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "-1"},
			wantErr: true,
		},
		{
			name: "defaults",
			env:  map[string]string{"QDRANT_VECTOR_SIZE": "3072"},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.QdrantVectorSize != 3072 {
					t.Errorf("QdrantVectorSize = %d, want 3072", cfg.QdrantVectorSize)
				}
				if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
					t.Errorf("log = %v/%s, want INFO/text", cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.DBDriver != "sqlite" || cfg.DSN() != "./data/aller-discovery.db" {
					t.Errorf("db = %s %s, want sqlite ./data/aller-discovery.db", cfg.DBDriver, cfg.DSN())
				}
				want := discovery.Collections{
					Brand:      "brand-name",
					Product:    "product-name",
					Ingredient: "ingredients-name",
					Feature:    "rag-product",
				}
				if cfg.Collections != want {
					t.Errorf("Collections = %+v, want %+v", cfg.Collections, want)
				}
				if cfg.EmbeddingModelName != "text-embedding-3-large" || cfg.LLMModelName != "gpt-4o-mini" {
					t.Errorf("models = %s/%s", cfg.EmbeddingModelName, cfg.LLMModelName)
				}
				if !cfg.AnalyzerEnabled {
					t.Error("AnalyzerEnabled should default to true")
				}
				if cfg.RedisAddr != "" || cfg.EmbedCacheTTL != 24*time.Hour {
					t.Errorf("cache = %q %v, want disabled 24h", cfg.RedisAddr, cfg.EmbedCacheTTL)
				}
				if cfg.FeatureTopK != 300 || cfg.ResultLimit != 30 || cfg.ProductCandidates != 5 {
					t.Errorf("search = %d/%d/%d, want 300/30/5", cfg.FeatureTopK, cfg.ResultLimit, cfg.ProductCandidates)
				}
				if cfg.FailurePolicy != discovery.FailRequest {
					t.Errorf("FailurePolicy = %s, want fail", cfg.FailurePolicy)
				}
				if cfg.SearchTimeout != 20*time.Second || cfg.IndexWorkers != 4 || cfg.APIPort != "9000" {
					t.Errorf("timeout/workers/port = %v/%d/%s", cfg.SearchTimeout, cfg.IndexWorkers, cfg.APIPort)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"QDRANT_VECTOR_SIZE":            "768",
				"LOG_LEVEL":                     "debug",
				"LOG_FORMAT":                    "json",
				"QDRANT_FEATURE_COLLECTION":     "features",
				"SEARCH_FEATURE_TOP_K":          "50",
				"SEARCH_FEATURE_FAILURE_POLICY": "degrade",
				"SEARCH_TIMEOUT":                "3s",
				"REDIS_ADDR":                    "localhost:6379",
				"REDIS_DB":                      "2",
				"ANALYZER_ENABLED":              "false",
				"EMBEDDING_DIMENSIONS":          "true",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
					t.Errorf("log = %v/%s, want DEBUG/json", cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.Collections.Feature != "features" {
					t.Errorf("Collections.Feature = %s, want features", cfg.Collections.Feature)
				}
				if cfg.FeatureTopK != 50 || cfg.FailurePolicy != discovery.DegradeToRelational || cfg.SearchTimeout != 3*time.Second {
					t.Errorf("search = %d/%s/%v", cfg.FeatureTopK, cfg.FailurePolicy, cfg.SearchTimeout)
				}
				if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
					t.Errorf("redis = %s/%d", cfg.RedisAddr, cfg.RedisDB)
				}
				if cfg.AnalyzerEnabled {
					t.Error("AnalyzerEnabled should be false")
				}
				if !cfg.EmbeddingDimensions {
					t.Error("EmbeddingDimensions should be true")
				}
			},
		},
		{
			name: "postgres",
			env: map[string]string{
				"QDRANT_VECTOR_SIZE": "768",
				"DB_DRIVER":          "postgres",
				"DATABASE_URL":       "postgres://u:p@localhost/aller?sslmode=disable",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.DSN() != "postgres://u:p@localhost/aller?sslmode=disable" {
					t.Errorf("DSN() = %s", cfg.DSN())
				}
			},
		},
		{
			name:    "postgres without DATABASE_URL",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "768", "DB_DRIVER": "postgres"},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "768", "DB_DRIVER": "mysql"},
			wantErr: true,
		},
		{
			name:    "unknown failure policy",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "768", "SEARCH_FEATURE_FAILURE_POLICY": "ignore"},
			wantErr: true,
		},
		{
			name:    "invalid timeout",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "768", "SEARCH_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "invalid dimensions flag",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "768", "EMBEDDING_DIMENSIONS": "maybe"},
			wantErr: true,
		},
		{
			name:    "zero top k",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "768", "SEARCH_FEATURE_TOP_K": "0"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "768", "LOG_LEVEL": "loud"},
			wantErr: true,
		},
		{
			name:    "invalid log format",
			env:     map[string]string{"QDRANT_VECTOR_SIZE": "768", "LOG_FORMAT": "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolateEnv(t)

	dbPath := filepath.Join(t.TempDir(), "test", "db.db")
	t.Setenv("QDRANT_VECTOR_SIZE", "768")
	t.Setenv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}
	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolateEnv(t)

	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("QDRANT_VECTOR_SIZE=1536\nAPI_PORT=9100\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "db.db"))
	// godotenv never overrides variables that are already set, even empty
	// ones, so clear the two under test.
	if err := os.Unsetenv("QDRANT_VECTOR_SIZE"); err != nil {
		t.Fatal(err)
	}
	if err := os.Unsetenv("API_PORT"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("QDRANT_VECTOR_SIZE")
		_ = os.Unsetenv("API_PORT")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QdrantVectorSize != 1536 || cfg.APIPort != "9100" {
		t.Errorf("Load() = %d/%s, want values from .env", cfg.QdrantVectorSize, cfg.APIPort)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "empty env var uses default", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_VAR", tt.value)
			if got := getEnv("TEST_ENV_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q) = %q, want %q", "TEST_ENV_VAR", got, tt.want)
			}
		})
	}
}
