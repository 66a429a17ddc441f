package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/discovery"
	"aller-discovery/internal/vectorstore"
)

// Pinger reports whether the relational store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the catalog database and every vector
// collection the search pipeline reads from are reachable.
type HealthHandler struct {
	db          Pinger
	vectorStore vectorstore.VectorStore
	collections discovery.Collections
	timeout     time.Duration
}

// NewHealthHandler creates a HealthHandler with a 5 second budget for all
// checks together.
func NewHealthHandler(db Pinger, vectorStore vectorstore.VectorStore, collections discovery.Collections) *HealthHandler {
	return &HealthHandler{
		db:          db,
		vectorStore: vectorStore,
		collections: collections,
		timeout:     5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// "healthy" or "unhealthy"
	Status string `json:"status"`

	// RFC 3339 time of the check
	Timestamp string `json:"timestamp"`

	// "ok" or "error" per dependency: "database" and "collection:<name>"
	Checks map[string]string `json:"checks"`

	// Failed dependencies, sorted
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Pings the catalog database and checks that the brand, product, ingredient
// and feature collections exist. Checks run concurrently.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: All dependencies reachable
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: At least one dependency failed
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	probes := map[string]func(context.Context) error{
		"database": h.db.PingContext,
	}
	for _, c := range h.collections.All() {
		probes["collection:"+c] = func(ctx context.Context) error {
			return h.requireCollection(ctx, c)
		}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]string, len(probes))
		issues []string
	)
	for name, probe := range probes {
		wg.Go(func() {
			err := probe(checkCtx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				checks[name] = "error"
				issues = append(issues, name)
				return
			}
			checks[name] = "ok"
		})
	}
	wg.Wait()
	slices.Sort(issues)

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}
	status := http.StatusOK
	if len(issues) > 0 {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	if err := writeJSON(w, status, resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

func (h *HealthHandler) requireCollection(ctx context.Context, collection string) error {
	exists, err := h.vectorStore.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("collection does not exist")
	}
	return nil
}
