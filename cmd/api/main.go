package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"aller-discovery/internal/app"
	"aller-discovery/internal/config"
	"aller-discovery/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API searches a cosmetics catalog by brand, product, ingredient,
// category, price and free-text product features.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Aller Discovery API
//   description: |
//     Hybrid retrieval and ranking for a cosmetics catalog. Queries are
//     resolved against the catalog, matched by feature similarity and ranked
//     by score and price.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(cfg.NewLogger())
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Shutdown completed with errors", "error", err)
		}
	}()

	// Fail fast when the embedding model and the collections disagree.
	if err := a.ValidateEmbeddings(ctx); err != nil {
		log.Fatalf("Embedding check failed: %v", err)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName, "vector_size", cfg.QdrantVectorSize)

	for _, collection := range cfg.Collections.All() {
		if err := a.VectorStore.EnsureCollection(ctx, collection, cfg.QdrantVectorSize); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection %s: %v", collection, err)
		}
	}
	slog.Info("Qdrant collections ready", "collections", cfg.Collections.All())

	router := http.NewRouter(&http.Deps{
		SearchService: a.Search,
		Products:      a.Products,
		Indexer:       a.Indexer,
		DB:            a.DB,
		VectorStore:   a.VectorStore,
		Collections:   cfg.Collections,
		SearchTimeout: cfg.SearchTimeout,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed: %v", err)
	}
	slog.Info("API server stopped")
}
