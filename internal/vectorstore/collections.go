package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"aller-discovery/internal/contextutil"
)

// CollectionInfo summarizes one collection for status output.
type CollectionInfo struct {
	Name        string `json:"name"`
	Exists      bool   `json:"exists"`
	VectorSize  int    `json:"vector_size,omitempty"`
	PointsCount uint64 `json:"points_count"`
	Status      string `json:"status,omitempty"`
}

// CollectionExists reports whether collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	return exists, nil
}

// EnsureCollection creates collection with cosine distance and a ref_id
// payload index, or validates the vector size of an existing one.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}

	if exists {
		info, err := s.client.GetCollectionInfo(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to get collection %s: %w", collection, err)
		}
		actual := configuredSize(info)
		if actual == 0 {
			return fmt.Errorf("collection %s has no single unnamed vector", collection)
		}
		if actual != vectorSize {
			return fmt.Errorf("collection %s vector size mismatch: expected %d, got %d", collection, vectorSize, actual)
		}
		logger.DebugContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
		return nil
	}

	logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	if _, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: collection,
		FieldName:      RefIDField,
		FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
	}); err != nil {
		return fmt.Errorf("failed to index %s on collection %s: %w", RefIDField, collection, err)
	}
	return nil
}

// DeleteCollection drops collection if it exists.
func (s *QdrantStore) DeleteCollection(ctx context.Context, collection string) error {
	exists, err := s.CollectionExists(ctx, collection)
	if err != nil || !exists {
		return err
	}

	if err := s.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", collection, err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "deleted collection", "collection", collection)
	return nil
}

// Describe returns the state of each named collection. Missing collections
// are reported with Exists false.
func (s *QdrantStore) Describe(ctx context.Context, collections []string) ([]CollectionInfo, error) {
	out := make([]CollectionInfo, 0, len(collections))
	for _, name := range collections {
		exists, err := s.CollectionExists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !exists {
			out = append(out, CollectionInfo{Name: name})
			continue
		}

		info, err := s.client.GetCollectionInfo(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get collection %s: %w", name, err)
		}
		out = append(out, describe(name, info))
	}
	return out, nil
}

func describe(name string, info *qdrant.CollectionInfo) CollectionInfo {
	ci := CollectionInfo{
		Name:       name,
		Exists:     true,
		VectorSize: configuredSize(info),
		Status:     info.GetStatus().String(),
	}
	if info.PointsCount != nil {
		ci.PointsCount = *info.PointsCount
	}
	return ci
}

// configuredSize returns the size of the collection's unnamed vector, or 0.
func configuredSize(info *qdrant.CollectionInfo) int {
	return int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
}
