package llm

import (
	"context"
	"fmt"
	"strings"
)

// EmbeddingsClient calls an embeddings endpoint and checks every vector
// against the size of the vector collections.
type EmbeddingsClient struct {
	model      string
	vectorSize int
	dimensions int
	t          transport
}

// EmbeddingsOption configures an EmbeddingsClient.
type EmbeddingsOption func(*EmbeddingsClient)

// WithDimensions sends the dimensions parameter so models with adjustable
// output size return vectorSize-long vectors.
func WithDimensions() EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		c.dimensions = c.vectorSize
	}
}

// NewEmbeddingsClient creates an embeddings client. vectorSize is the
// expected length of every returned vector.
func NewEmbeddingsClient(baseURL, apiKey, model string, vectorSize int, opts ...Option) *EmbeddingsClient {
	return &EmbeddingsClient{
		model:      model,
		vectorSize: vectorSize,
		t:          newTransport(baseURL, apiKey, opts),
	}
}

// Configure applies embeddings-specific options.
func (c *EmbeddingsClient) Configure(opts ...EmbeddingsOption) *EmbeddingsClient {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the embedding model name.
func (c *EmbeddingsClient) Model() string {
	return c.model
}

// EmbedTexts returns one vector per text, in input order. Blank texts are
// rejected because the server would embed them as noise.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("input %d is blank", i)
		}
	}

	var resp embeddingsResponse
	req := embeddingsRequest{Model: c.model, Input: texts, Dimensions: c.dimensions}
	if err := c.t.post(ctx, "/v1/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// The server may answer out of order; index says where each vector goes.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("embedding index %d out of range or repeated", d.Index)
		}
		if len(d.Embedding) != c.vectorSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", d.Index, len(d.Embedding), c.vectorSize)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// EmbedText returns the vector for a single text.
func (c *EmbeddingsClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
