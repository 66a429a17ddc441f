package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks aller-discovery/internal/indexer Embedder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/discovery"
	"aller-discovery/internal/storage"
	"aller-discovery/internal/vectorstore"
)

// DefaultBatchSize is the number of texts embedded per request.
const DefaultBatchSize = 32

// pointNamespace seeds deterministic point IDs so re-indexing overwrites
// points in place.
var pointNamespace = uuid.MustParse("8f4d3c2a-6b1e-4f7a-9d2c-5e8b7a1f0c3d")

// Embedder embeds a batch of texts, one vector per text in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline loads the catalog from the relational store and writes the name
// and feature collections to the vector store.
type Pipeline struct {
	catalog     storage.CatalogStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collections discovery.Collections
	vectorSize  int
	splitter    *Splitter
	pool        *ants.Pool
	batchSize   int
	modelName   string
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets how many batches are embedded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of texts per embedding request.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("batch size must be greater than 0")
		}
		p.batchSize = n
		return nil
	}
}

// WithModelName records the embedding model in the index version.
func WithModelName(name string) Option {
	return func(p *Pipeline) error {
		p.modelName = name
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// NewPipeline creates a new indexing pipeline. Call Release when done.
func NewPipeline(
	catalog storage.CatalogStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collections discovery.Collections,
	vectorSize int,
	opts ...Option,
) (*Pipeline, error) {
	if vectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be greater than 0")
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		catalog:     catalog,
		embedder:    embedder,
		vectorStore: vectorStore,
		collections: collections,
		vectorSize:  vectorSize,
		splitter:    NewSplitter(),
		pool:        pool,
		batchSize:   DefaultBatchSize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Release releases the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) getLogger(ctx context.Context) *slog.Logger {
	if contextutil.HasLogger(ctx) {
		return contextutil.LoggerFromContext(ctx)
	}
	return p.logger
}

// item is one text to embed and store.
type item struct {
	id   string
	text string
	meta map[string]any
}

// batch is a group of items bound for one collection.
type batch struct {
	collection string
	items      []item
}

// IndexAll embeds every brand, product and ingredient name and every feature
// snippet. Failed batches are counted and reported as one joined error after
// all batches have run.
func (p *Pipeline) IndexAll(ctx context.Context) (*IndexStats, error) {
	logger := p.getLogger(ctx)

	for _, c := range p.collections.All() {
		if err := p.vectorStore.EnsureCollection(ctx, c, p.vectorSize); err != nil {
			return nil, fmt.Errorf("failed to ensure collection %s: %w", c, err)
		}
	}

	brands, err := p.catalog.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	ingredients, err := p.catalog.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	products, err := p.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	stats := &IndexStats{
		Brands:       len(brands),
		Ingredients:  len(ingredients),
		Products:     len(products),
		IndexVersion: IndexVersion(p.modelName),
	}

	brandItems := make([]item, 0, len(brands))
	for _, b := range brands {
		if isBlank(b.Name) {
			continue
		}
		brandItems = append(brandItems, p.nameItem(p.collections.Brand, b.ID, b.Name, nil))
	}

	ingredientItems := make([]item, 0, len(ingredients))
	for _, ing := range ingredients {
		if isBlank(ing.Name) {
			continue
		}
		ingredientItems = append(ingredientItems, p.nameItem(p.collections.Ingredient, ing.ID, ing.Name, nil))
	}

	productItems := make([]item, 0, len(products))
	var featureItems []item
	var allSnippets []Snippet
	for _, prod := range products {
		if !isBlank(prod.Name) {
			productItems = append(productItems, p.nameItem(p.collections.Product, prod.ID, prod.Name, map[string]any{"brand_id": prod.BrandID}))
		}

		snippets := p.splitter.Split(prod.FeatureText)
		if len(snippets) == 0 {
			stats.ProductsWithoutSnippets++
			continue
		}
		for _, s := range snippets {
			featureItems = append(featureItems, item{
				id:   pointID(p.collections.Feature, prod.ID, s.Index),
				text: s.Text,
				meta: map[string]any{
					discovery.RefIDKey: prod.ID,
					"snippet_index":    int64(s.Index),
					"section":          s.Section,
					"text":             s.Text,
				},
			})
		}
		allSnippets = append(allSnippets, snippets...)
	}
	stats.Snippets = len(allSnippets)
	stats.SnippetLength = computeLengthStats(snippetLengths(allSnippets))

	var batches []batch
	batches = append(batches, p.batches(p.collections.Brand, brandItems)...)
	batches = append(batches, p.batches(p.collections.Ingredient, ingredientItems)...)
	batches = append(batches, p.batches(p.collections.Product, productItems)...)
	batches = append(batches, p.batches(p.collections.Feature, featureItems)...)

	logger.InfoContext(ctx, "starting indexing",
		"brands", stats.Brands,
		"ingredients", stats.Ingredients,
		"products", stats.Products,
		"snippets", stats.Snippets,
		"batches", len(batches),
	)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(b batch, err error) {
		mu.Lock()
		defer mu.Unlock()
		stats.PointsFailed += len(b.items)
		errs = append(errs, fmt.Errorf("%s: %w", b.collection, err))
	}

	for _, b := range batches {
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.indexBatch(ctx, b); err != nil {
				logger.ErrorContext(ctx, "failed to index batch", "collection", b.collection, "size", len(b.items), "error", err)
				fail(b, err)
			}
		}); err != nil {
			wg.Done()
			fail(b, err)
		}
	}
	wg.Wait()

	logger.InfoContext(ctx, "indexing completed",
		"snippets", stats.Snippets,
		"products_without_snippets", stats.ProductsWithoutSnippets,
		"points_failed", stats.PointsFailed,
		"index_version", stats.IndexVersion,
	)

	if len(errs) > 0 {
		return stats, fmt.Errorf("indexing completed with %d failed batches: %w", len(errs), errors.Join(errs...))
	}
	return stats, nil
}

// ClearAll deletes the four collections. IndexAll recreates them.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	var errs []error
	for _, c := range p.collections.All() {
		if err := p.vectorStore.DeleteCollection(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete collection %s: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) indexBatch(ctx context.Context, b batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	texts := make([]string, len(b.items))
	for i, it := range b.items {
		texts[i] = it.text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(b.items) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(b.items), len(vectors))
	}

	points := make([]vectorstore.Point, len(b.items))
	for i, it := range b.items {
		points[i] = vectorstore.Point{ID: it.id, Vec: vectors[i], Meta: it.meta}
	}

	if err := p.vectorStore.Upsert(ctx, b.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

func (p *Pipeline) nameItem(collection string, refID int64, name string, extra map[string]any) item {
	meta := map[string]any{
		discovery.RefIDKey: refID,
		"name":             name,
	}
	for k, v := range extra {
		meta[k] = v
	}
	return item{id: pointID(collection, refID, 0), text: name, meta: meta}
}

func (p *Pipeline) batches(collection string, items []item) []batch {
	var out []batch
	for start := 0; start < len(items); start += p.batchSize {
		end := min(start+p.batchSize, len(items))
		out = append(out, batch{collection: collection, items: items[start:end]})
	}
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// pointID derives a stable UUID from the collection, catalog ID and
// snippet position.
func pointID(collection string, refID int64, index int) string {
	return uuid.NewSHA1(pointNamespace, fmt.Appendf(nil, "%s:%d:%d", collection, refID, index)).String()
}
