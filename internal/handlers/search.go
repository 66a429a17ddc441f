package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/discovery"
	"aller-discovery/internal/service"
)

// maxSearchBody caps the request body size.
const maxSearchBody = 64 << 10

// SearchHandler handles HTTP requests for product search.
type SearchHandler struct {
	searchService service.SearchService
	timeout       time.Duration
}

// NewSearchHandler creates a new SearchHandler. A positive timeout bounds
// each search.
func NewSearchHandler(searchService service.SearchService, timeout time.Duration) *SearchHandler {
	return &SearchHandler{searchService: searchService, timeout: timeout}
}

// SearchRequest represents the HTTP request payload for product search.
// Either query or parsed must be set; parsed skips query analysis.
//
// swagger:model SearchRequest
type SearchRequest struct {
	// Raw user query
	Query string `json:"query"`

	// Pre-parsed query
	Parsed *discovery.ParsedQuery `json:"parsed,omitempty"`

	// Maximum number of products (default 30)
	Limit int `json:"limit,omitempty"`
}

// SearchResponse represents the HTTP response payload for product search.
//
// swagger:model SearchResponse
type SearchResponse struct {
	// One of "ranked", "scarce", "no_match" or "general"
	Outcome string `json:"outcome"`

	// Guidance shown instead of products
	Message string `json:"message,omitempty"`

	// Structured query the search ran with
	Parsed discovery.ParsedQuery `json:"parsed"`

	// Catalog IDs resolved from the query
	Resolved discovery.ResolvedQuery `json:"resolved"`

	// Ranked products
	Products []service.ProductCard `json:"products"`

	// Set when the feature index was unavailable and results come from filters alone
	Degraded bool `json:"degraded,omitempty"`
}

// ServeHTTP handles HTTP requests for product search.
//
// swagger:route POST /api/v1/search searchProducts
//
// # Search products
//
// Resolves brand, product and ingredient mentions, retrieves products by
// feature similarity and filters and ranks them.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Search completed
//	  schema:
//	    "$ref": "#/definitions/SearchResponse"
//	'400':
//	  description: Invalid request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Embedding or analyzer service failed
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: Vector index or database unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody)).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	searchCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := h.searchService.Search(searchCtx, service.SearchRequest{
		Query:  req.Query,
		Parsed: req.Parsed,
		Limit:  req.Limit,
	})
	if err != nil {
		status, message := searchErrorStatus(err)
		logger.ErrorContext(ctx, "search request failed", "status", status, "error", err)
		writeError(w, r, status, message)
		return
	}

	if err := writeJSON(w, http.StatusOK, SearchResponse{
		Outcome:  string(resp.Outcome),
		Message:  resp.Message,
		Parsed:   resp.Parsed,
		Resolved: resp.Resolved,
		Products: resp.Products,
		Degraded: resp.Degraded,
	}); err != nil {
		logger.ErrorContext(ctx, "failed to encode search response", "error", err)
	}
}

// searchErrorStatus maps a search error to an HTTP status and client message.
func searchErrorStatus(err error) (int, string) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Error()
	}
	if errors.Is(err, service.ErrAnalyzerUnavailable) {
		return http.StatusBadRequest, "Query analysis is disabled; send a parsed query"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "Search timed out"
	}
	if errors.Is(err, service.ErrExternalService) {
		return http.StatusBadGateway, "Query analysis failed"
	}

	var collabErr *discovery.CollaboratorError
	if errors.As(err, &collabErr) {
		if collabErr.Op == discovery.OpEmbed {
			return http.StatusBadGateway, "Embedding service failed"
		}
		return http.StatusServiceUnavailable, "Search backend unavailable"
	}

	return http.StatusInternalServerError, "Internal server error"
}
