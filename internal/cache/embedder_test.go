package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// memoryClient is an in-memory Client for tests.
type memoryClient struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	setTTLs []time.Duration
}

func newMemoryClient() *memoryClient {
	return &memoryClient{data: make(map[string][]byte)}
}

func (m *memoryClient) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.setTTLs = append(m.setTTLs, ttl)
	return nil
}

func (m *memoryClient) DeleteByPrefix(_ context.Context, prefix string) error {
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memoryClient) Close() error { return nil }

// countingEmbedder returns a fixed vector and counts calls.
type countingEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (c *countingEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	c.calls++
	return c.vec, c.err
}

func TestCachedEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedder{vec: []float32{0.1, -0.2, 3}}
	client := newMemoryClient()
	e := NewCachedEmbedder(next, client, "model-a", time.Hour)

	first, err := e.EmbedText(ctx, "선크림")
	if err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	second, err := e.EmbedText(ctx, "선크림")
	if err != nil {
		t.Fatalf("EmbedText() second error = %v", err)
	}

	if next.calls != 1 {
		t.Errorf("wrapped embedder called %d times, want 1", next.calls)
	}
	if len(second) != len(first) {
		t.Fatalf("cached vector length = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("cached vector[%d] = %v, want %v", i, second[i], first[i])
		}
	}
	if len(client.setTTLs) != 1 || client.setTTLs[0] != time.Hour {
		t.Errorf("Set TTLs = %v, want [1h]", client.setTTLs)
	}

	if _, err := e.EmbedText(ctx, "토너"); err != nil {
		t.Fatalf("EmbedText() other text error = %v", err)
	}
	if next.calls != 2 {
		t.Errorf("wrapped embedder called %d times after new text, want 2", next.calls)
	}
}

func TestCachedEmbedder_ModelNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient()
	a := &countingEmbedder{vec: []float32{1}}
	b := &countingEmbedder{vec: []float32{2}}

	if _, err := NewCachedEmbedder(a, client, "model-a", time.Hour).EmbedText(ctx, "x"); err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	vec, err := NewCachedEmbedder(b, client, "model-b", time.Hour).EmbedText(ctx, "x")
	if err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	if b.calls != 1 || vec[0] != 2 {
		t.Errorf("model-b read model-a's cache entry: calls=%d vec=%v", b.calls, vec)
	}
}

func TestCachedEmbedder_CacheFailuresFallThrough(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedder{vec: []float32{1, 2}}
	client := newMemoryClient()
	client.getErr = errors.New("connection refused")
	client.setErr = errors.New("connection refused")

	vec, err := NewCachedEmbedder(next, client, "m", time.Hour).EmbedText(ctx, "x")
	if err != nil {
		t.Fatalf("EmbedText() error = %v, want fallthrough", err)
	}
	if len(vec) != 2 || next.calls != 1 {
		t.Errorf("EmbedText() = %v after %d calls", vec, next.calls)
	}
}

func TestCachedEmbedder_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedder{vec: []float32{5}}
	client := newMemoryClient()
	e := NewCachedEmbedder(next, client, "m", time.Hour)
	client.data[e.key("x")] = []byte{1, 2, 3}

	vec, err := e.EmbedText(ctx, "x")
	if err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	if next.calls != 1 || vec[0] != 5 {
		t.Errorf("corrupt entry not recomputed: calls=%d vec=%v", next.calls, vec)
	}
}

func TestCachedEmbedder_PropagatesEmbedError(t *testing.T) {
	wantErr := errors.New("embedding service down")
	next := &countingEmbedder{err: wantErr}
	client := newMemoryClient()

	_, err := NewCachedEmbedder(next, client, "m", time.Hour).EmbedText(context.Background(), "x")
	if !errors.Is(err, wantErr) {
		t.Errorf("EmbedText() error = %v, want %v", err, wantErr)
	}
	if len(client.data) != 0 {
		t.Errorf("cache written after failure: %v", client.data)
	}
}

func TestCachedEmbedder_Purge(t *testing.T) {
	ctx := context.Background()
	client := newMemoryClient()
	client.data["other:key"] = []byte{0, 0, 0, 0}
	e := NewCachedEmbedder(&countingEmbedder{vec: []float32{1}}, client, "m", time.Hour)

	if _, err := e.EmbedText(ctx, "x"); err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	if err := e.Purge(ctx); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if len(client.data) != 1 {
		t.Errorf("Purge() left %d keys, want only the unrelated key", len(client.data))
	}
}

func TestVectorEncoding(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 1e-7}
	got, err := decodeVector(encodeVector(vec))
	if err != nil {
		t.Fatalf("decodeVector() error = %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("decoded[%d] = %v, want %v", i, got[i], vec[i])
		}
	}

	if _, err := decodeVector(nil); err == nil {
		t.Error("decodeVector(nil) expected error")
	}
}
