// Package app wires configuration into the stores, clients and services
// shared by the API server and the catalog CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"aller-discovery/internal/analyzer"
	"aller-discovery/internal/cache"
	"aller-discovery/internal/category"
	"aller-discovery/internal/config"
	"aller-discovery/internal/discovery"
	"aller-discovery/internal/indexer"
	"aller-discovery/internal/llm"
	"aller-discovery/internal/service"
	"aller-discovery/internal/storage"
	"aller-discovery/internal/vectorstore"
)

// App holds the wired components. Call Close when done.
type App struct {
	Config      *config.Config
	DB          *sql.DB
	Catalog     *storage.CatalogRepo
	Products    *storage.ProductRepo
	VectorStore *vectorstore.QdrantStore
	Embeddings  *llm.EmbeddingsClient
	// EmbedCache is nil when REDIS_ADDR is unset.
	EmbedCache *cache.CachedEmbedder
	Vocabulary *category.Vocabulary
	Engine     *discovery.Engine
	Search     service.SearchService
	Indexer    *indexer.Pipeline

	closers []func() error
}

// New opens the database, runs migrations and builds every component.
// Connections opened before a failure are closed.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	logger := slog.Default()

	a.DB, err = storage.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, a.DB.Close)

	if err = storage.Migrate(a.DB); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.InfoContext(ctx, "database initialized", "driver", cfg.DBDriver)

	a.Catalog = storage.NewCatalogRepo(a.DB)
	a.Products = storage.NewProductRepo(a.DB)

	a.VectorStore, err = vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.VectorStore.Close)

	a.Embeddings = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	if cfg.EmbeddingDimensions {
		a.Embeddings.Configure(llm.WithDimensions())
	}

	var queryEmbedder discovery.Embedder = a.Embeddings
	if cfg.RedisAddr != "" {
		redisClient, redisErr := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if redisErr != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", redisErr)
		}
		a.closers = append(a.closers, redisClient.Close)
		a.EmbedCache = cache.NewCachedEmbedder(a.Embeddings, redisClient, cfg.EmbeddingModelName, cfg.EmbedCacheTTL)
		queryEmbedder = a.EmbedCache
		logger.InfoContext(ctx, "embedding cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.EmbedCacheTTL)
	}

	if cfg.CategoryVocabPath != "" {
		a.Vocabulary, err = category.Load(cfg.CategoryVocabPath)
		if err != nil {
			return nil, err
		}
	} else {
		a.Vocabulary = category.Default()
	}

	a.Engine = discovery.NewEngine(queryEmbedder, a.VectorStore, cfg.Collections, a.Products,
		discovery.WithFeatureTopK(cfg.FeatureTopK),
		discovery.WithResultLimit(cfg.ResultLimit),
		discovery.WithProductCandidates(cfg.ProductCandidates),
		discovery.WithFailurePolicy(cfg.FailurePolicy),
	)

	var queryAnalyzer service.QueryAnalyzer
	if cfg.AnalyzerEnabled {
		queryAnalyzer = analyzer.New(llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName), a.Vocabulary)
		logger.InfoContext(ctx, "query analyzer enabled", "model", cfg.LLMModelName)
	}
	a.Search = service.NewSearchService(queryAnalyzer, a.Engine, a.Vocabulary)

	a.Indexer, err = indexer.NewPipeline(a.Catalog, a.Embeddings, a.VectorStore, cfg.Collections, cfg.QdrantVectorSize,
		indexer.WithWorkers(cfg.IndexWorkers),
		indexer.WithModelName(cfg.EmbeddingModelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}
	a.closers = append(a.closers, func() error {
		a.Indexer.Release()
		return nil
	})

	return a, nil
}

// ValidateEmbeddings embeds a probe text and checks the vector size against
// the configured collection size.
func (a *App) ValidateEmbeddings(ctx context.Context) error {
	vectors, err := a.Embeddings.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) != a.Config.QdrantVectorSize {
		got := 0
		if len(vectors) > 0 {
			got = len(vectors[0])
		}
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", a.Config.QdrantVectorSize, got)
	}
	return nil
}

// Close releases every component in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
