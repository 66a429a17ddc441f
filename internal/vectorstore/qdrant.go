package vectorstore

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

const (
	defaultGRPCPort = 6334

	// RefIDField is the payload key holding the catalog row ID. It gets an
	// integer payload index so points can be filtered by catalog row.
	RefIDField = "ref_id"
)

// QdrantStore implements VectorStore on a Qdrant server over gRPC.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore connects to the Qdrant server at rawURL, given as its REST
// address ("http://localhost:6333"). The gRPC port is the REST port plus one.
// An https scheme enables TLS.
func NewQdrantStore(rawURL, apiKey string) (*QdrantStore, error) {
	cfg, err := clientConfig(rawURL, apiKey)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantStore{client: client}, nil
}

func clientConfig(rawURL, apiKey string) (*qdrant.Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid Qdrant URL scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := defaultGRPCPort
	if p := u.Port(); p != "" {
		restPort, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
		}
		port = restPort + 1
	}

	return &qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: u.Scheme == "https",
	}, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
