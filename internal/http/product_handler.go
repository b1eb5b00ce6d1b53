package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/backend"
	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Catalog is the read-only product surface owned by the backend.
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to load products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to load product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}
