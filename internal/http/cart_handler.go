package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/backend"
	"github.com/caffeinepub/ocarina-store-clone/internal/cart"
	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ProductGetter is the slice of the catalog the cart handler needs.
type ProductGetter interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

type CartHandler struct {
	carts   *cart.Service
	catalog ProductGetter
	timeout time.Duration
}

func NewCartHandler(carts *cart.Service, catalog ProductGetter, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int64 `json:"quantity"`
}

type CartResponseDTO struct {
	ID         string            `json:"id"`
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int64             `json:"total_items"`
	TotalPrice int64             `json:"total_price"`
	Currency   string            `json:"currency,omitempty"`
}

func toCartDTO(c *domain.Cart) CartResponseDTO {
	return CartResponseDTO{
		ID:         c.ID,
		Lines:      c.Lines,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
		Currency:   c.Currency(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.Get(ctx, getCartIDFromContext(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to load product")
		return
	}

	c, err := h.carts.AddItem(ctx, getCartIDFromContext(r.Context()), *product, req.Quantity)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCartDTO(c))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	// A quantity of zero or less removes the line.
	c, err := h.carts.UpdateQuantity(ctx, getCartIDFromContext(r.Context()), productID, req.Quantity)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	c, err := h.carts.RemoveItem(ctx, getCartIDFromContext(r.Context()), productID)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID := getCartIDFromContext(r.Context())
	if err := h.carts.Clear(ctx, cartID); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(&domain.Cart{ID: cartID}))
}

func handleCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, cart.ErrCurrencyMismatch):
		respondError(w, http.StatusConflict, "currency_mismatch", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "cart operation failed")
	}
}
