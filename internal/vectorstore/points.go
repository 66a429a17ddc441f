package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"aller-discovery/internal/contextutil"
)

// Upsert writes points and waits until they are searchable.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs, err := toPointStructs(points)
	if err != nil {
		return err
	}

	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	}); err != nil {
		return fmt.Errorf("failed to upsert %d points into %s: %w", len(points), collection, err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search returns the k nearest points to query by cosine similarity.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}

	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	results := fromScoredPoints(hits)
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "vector search", "collection", collection, "k", k, "hits", len(results))
	return results, nil
}

func toPointStructs(points []Point) ([]*qdrant.PointStruct, error) {
	out := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		if _, err := uuid.Parse(p.ID); err != nil {
			return nil, fmt.Errorf("point %d: id %q is not a UUID", i, p.ID)
		}
		if len(p.Vec) == 0 {
			return nil, fmt.Errorf("point %s has no vector", p.ID)
		}

		ps := &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vec...),
		}
		if len(p.Meta) > 0 {
			payload, err := qdrant.TryValueMap(p.Meta)
			if err != nil {
				return nil, fmt.Errorf("point %s payload: %w", p.ID, err)
			}
			ps.Payload = payload
		}
		out[i] = ps
	}
	return out, nil
}

func fromScoredPoints(hits []*qdrant.ScoredPoint) []SearchResult {
	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			PointID: pointID(h.GetId()),
			Score:   h.GetScore(),
			Meta:    payloadMap(h.GetPayload()),
		})
	}
	return results
}
