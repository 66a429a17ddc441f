//go:build integration

package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startQdrant(t *testing.T) *QdrantStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "qdrant/qdrant:v1.16.2",
			ExposedPorts: []string{"6333/tcp", "6334/tcp"},
			WaitingFor:   wait.ForListeningPort("6334/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate qdrant container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6334")
	require.NoError(t, err)

	// Mapped ports are random, so the REST+1 convention does not hold here.
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port.Int()})
	require.NoError(t, err)
	s := &QdrantStore{client: client}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestQdrantStore_Lifecycle(t *testing.T) {
	s := startQdrant(t)
	ctx := context.Background()
	const collection = "brand-name"

	require.NoError(t, s.EnsureCollection(ctx, collection, 3))
	require.NoError(t, s.EnsureCollection(ctx, collection, 3), "second call validates")
	assert.Error(t, s.EnsureCollection(ctx, collection, 4), "size mismatch")

	require.NoError(t, s.Upsert(ctx, collection, []Point{
		{ID: "5b0e7a4c-1d55-5a7e-9c1e-2f0d4a9b3c11", Vec: []float32{1, 0, 0}, Meta: map[string]any{RefIDField: int64(1), "name": "라운드랩"}},
		{ID: "0f0e7a4c-1d55-5a7e-9c1e-2f0d4a9b3c12", Vec: []float32{0, 1, 0}, Meta: map[string]any{RefIDField: int64(2), "name": "토리든"}},
	}))

	hits, err := s.Search(ctx, collection, []float32{0.9, 0.1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].Meta[RefIDField])
	assert.Equal(t, "라운드랩", hits[0].Meta["name"])

	infos, err := s.Describe(ctx, []string{collection, "missing"})
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.True(t, infos[0].Exists)
	assert.Equal(t, 3, infos[0].VectorSize)
	assert.EqualValues(t, 2, infos[0].PointsCount)
	assert.False(t, infos[1].Exists)

	require.NoError(t, s.DeleteCollection(ctx, collection))
	require.NoError(t, s.DeleteCollection(ctx, collection), "missing collection")
	exists, err := s.CollectionExists(ctx, collection)
	require.NoError(t, err)
	assert.False(t, exists)
}
