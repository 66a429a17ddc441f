package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_indexer.go -package=mocks aller-discovery/internal/handlers Indexer

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/indexer"
)

// Indexer rebuilds the vector collections from the catalog.
type Indexer interface {
	IndexAll(ctx context.Context) (*indexer.IndexStats, error)
	ClearAll(ctx context.Context) error
}

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	indexer Indexer
	running atomic.Bool
	logger  *slog.Logger
	// done is signalled when a background run finishes. Used by tests.
	done chan struct{}
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(indexer Indexer) *IndexHandler {
	return &IndexHandler{
		indexer: indexer,
		logger:  slog.Default(),
	}
}

func (h *IndexHandler) getLogger(ctx context.Context) *slog.Logger {
	if contextutil.HasLogger(ctx) {
		return contextutil.LoggerFromContext(ctx)
	}
	return h.logger
}

// IndexResponse represents the response from the index endpoint.
//
// swagger:model IndexResponse
type IndexResponse struct {
	// Human readable status
	Message string `json:"message"`

	// "accepted"
	Status string `json:"status"`
}

// ServeHTTP handles HTTP requests for triggering re-indexing.
//
// swagger:route POST /api/v1/index reindex
//
// # Rebuild the vector index
//
// Starts indexing in the background. With force=true the collections are
// dropped first.
//
// ---
// produces:
// - application/json
// responses:
//
//	'202':
//	  description: Indexing started
//	  schema:
//	    "$ref": "#/definitions/IndexResponse"
//	'409':
//	  description: Indexing already running
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.getLogger(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		logger.WarnContext(ctx, "indexing already running")
		writeError(w, r, http.StatusConflict, "Indexing already running")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	if force {
		logger.InfoContext(ctx, "force re-indexing triggered via API")
	} else {
		logger.InfoContext(ctx, "re-indexing triggered via API")
	}

	// The run outlives the request, so it gets its own context.
	go func() {
		defer func() {
			h.running.Store(false)
			if h.done != nil {
				h.done <- struct{}{}
			}
		}()

		indexCtx := contextutil.WithLogger(context.Background(), logger)
		if force {
			if err := h.indexer.ClearAll(indexCtx); err != nil {
				logger.ErrorContext(indexCtx, "failed to clear collections", "error", err)
				return
			}
			logger.InfoContext(indexCtx, "cleared all collections")
		}
		stats, err := h.indexer.IndexAll(indexCtx)
		if err != nil {
			logger.ErrorContext(indexCtx, "re-indexing completed with errors", "error", err)
			return
		}
		logger.InfoContext(indexCtx, "re-indexing completed successfully",
			"products", stats.Products,
			"snippets", stats.Snippets,
			"index_version", stats.IndexVersion,
		)
	}()

	message := "Indexing started. Check server logs for progress."
	if force {
		message = "Force re-indexing started (all collections cleared). Check server logs for progress."
	}
	_ = writeJSON(w, http.StatusAccepted, IndexResponse{
		Message: message,
		Status:  "accepted",
	})
}
