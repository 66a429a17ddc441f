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

	"aller-discovery/internal/discovery"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel  slog.Level
	LogFormat string
	APIPort   string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantVectorSize int
	Collections      discovery.Collections

	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
	// EmbeddingDimensions sends QdrantVectorSize as the dimensions request
	// parameter, for models that can shorten their output.
	EmbeddingDimensions bool

	AnalyzerEnabled bool
	LLMBaseURL      string
	LLMModelName    string
	LLMAPIKey       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EmbedCacheTTL time.Duration

	FeatureTopK       int
	ResultLimit       int
	ProductCandidates int
	FailurePolicy     discovery.FailurePolicy
	SearchTimeout     time.Duration

	CategoryVocabPath string
	IndexWorkers      int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Walk up a few levels so commands run from a subdirectory still find .env.
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "text")),
		APIPort:      getEnv("API_PORT", "9000"),
		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:       getEnv("DB_PATH", "./data/aller-discovery.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		QdrantURL:    getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),
		Collections: discovery.Collections{
			Brand:      getEnv("QDRANT_BRAND_COLLECTION", "brand-name"),
			Product:    getEnv("QDRANT_PRODUCT_COLLECTION", "product-name"),
			Ingredient: getEnv("QDRANT_INGREDIENT_COLLECTION", "ingredients-name"),
			Feature:    getEnv("QDRANT_FEATURE_COLLECTION", "rag-product"),
		},
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-large"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		CategoryVocabPath:  getEnv("CATEGORY_VOCAB_PATH", ""),
	}

	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// QDRANT_VECTOR_SIZE must match the embedding model output. Changing it
	// requires re-indexing with force.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	if cfg.QdrantVectorSize, err = positiveInt("QDRANT_VECTOR_SIZE", vectorSizeStr); err != nil {
		return nil, err
	}

	if cfg.EmbeddingDimensions, err = strconv.ParseBool(getEnv("EMBEDDING_DIMENSIONS", "false")); err != nil {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS must be a boolean: %w", err)
	}
	if cfg.AnalyzerEnabled, err = strconv.ParseBool(getEnv("ANALYZER_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("ANALYZER_ENABLED must be a boolean: %w", err)
	}

	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB must be a valid integer: %w", err)
	}
	if cfg.EmbedCacheTTL, err = positiveDuration("EMBED_CACHE_TTL", getEnv("EMBED_CACHE_TTL", "24h")); err != nil {
		return nil, err
	}

	if cfg.FeatureTopK, err = positiveInt("SEARCH_FEATURE_TOP_K", getEnv("SEARCH_FEATURE_TOP_K", strconv.Itoa(discovery.DefaultFeatureTopK))); err != nil {
		return nil, err
	}
	if cfg.ResultLimit, err = positiveInt("SEARCH_RESULT_LIMIT", getEnv("SEARCH_RESULT_LIMIT", strconv.Itoa(discovery.DefaultResultLimit))); err != nil {
		return nil, err
	}
	if cfg.ProductCandidates, err = positiveInt("SEARCH_PRODUCT_CANDIDATES", getEnv("SEARCH_PRODUCT_CANDIDATES", strconv.Itoa(discovery.DefaultProductCandidates))); err != nil {
		return nil, err
	}
	if cfg.FailurePolicy, err = discovery.ParseFailurePolicy(getEnv("SEARCH_FEATURE_FAILURE_POLICY", string(discovery.FailRequest))); err != nil {
		return nil, fmt.Errorf("SEARCH_FEATURE_FAILURE_POLICY: %w", err)
	}
	if cfg.SearchTimeout, err = positiveDuration("SEARCH_TIMEOUT", getEnv("SEARCH_TIMEOUT", "20s")); err != nil {
		return nil, err
	}
	if cfg.IndexWorkers, err = positiveInt("INDEX_WORKERS", getEnv("INDEX_WORKERS", "4")); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "sqlite":
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER is postgres")
		}
	default:
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}

	return cfg, nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func positiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}

func positiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}
