package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/service"
	"aller-discovery/internal/storage"
)

// ProductHandler serves single products by catalog ID.
type ProductHandler struct {
	products storage.ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products storage.ProductStore) *ProductHandler {
	return &ProductHandler{products: products}
}

// ServeHTTP handles HTTP requests for one product.
//
// swagger:route GET /api/v1/products/{id} getProduct
//
// # Get a product
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Product found
//	'400':
//	  description: Invalid product ID
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: Product not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.products.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to load product", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	cards := service.Present([]storage.ProductRecord{*product}, nil)
	if err := writeJSON(w, http.StatusOK, cards[0]); err != nil {
		logger.ErrorContext(ctx, "failed to encode product", "error", err)
	}
}
