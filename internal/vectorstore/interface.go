// Package vectorstore stores catalog name and feature embeddings and answers
// nearest-neighbour lookups over them.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks aller-discovery/internal/vectorstore VectorStore

import "context"

// Point is one embedded catalog entry. ID must be a UUID; Meta becomes the
// point payload and carries the catalog reference.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult is a neighbour returned by Search. Numeric payload values are
// decoded as int64 or float64.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore is the vector index used by the discovery engine and the
// indexer.
type VectorStore interface {
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points to query, best first.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	CollectionExists(ctx context.Context, collection string) (bool, error)

	// EnsureCollection creates the collection if missing, otherwise checks
	// that its vector size matches.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// DeleteCollection drops a collection. A missing collection is not an error.
	DeleteCollection(ctx context.Context, collection string) error
}
