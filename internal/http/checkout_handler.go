package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/cart"
	"github.com/caffeinepub/ocarina-store-clone/internal/checkout"
)

type CheckoutHandler struct {
	initiator *checkout.Initiator
	carts     *cart.Service

	// publicBaseURL is where the processor sends the shopper back; the
	// success URL gets the session_id query parameter appended by the
	// processor itself.
	publicBaseURL string
	timeout       time.Duration
}

func NewCheckoutHandler(initiator *checkout.Initiator, carts *cart.Service, publicBaseURL string, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		initiator:     initiator,
		carts:         carts,
		publicBaseURL: publicBaseURL,
		timeout:       timeout,
	}
}

type CheckoutSessionResponseDTO struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// POST /api/v1/checkout
//
// The guards here (authentication, non-empty cart) belong to this surrounding
// layer; the initiator itself makes no such assumptions.
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if getIdentityFromContext(r.Context()) == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "please log in to checkout")
		return
	}

	cartID := getCartIDFromContext(r.Context())
	c, err := h.carts.Get(ctx, cartID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}
	if c.IsEmpty() {
		respondError(w, http.StatusBadRequest, "empty_cart", "your cart is empty")
		return
	}

	successURL := h.publicBaseURL + "/payment-success"
	cancelURL := h.publicBaseURL + "/payment-failure"

	session, err := h.initiator.Initiate(ctx, cartID, successURL, cancelURL)
	if err != nil {
		handleCheckoutError(ctx, w, err)
		return
	}

	// The browser performs a full navigation to session.URL; the handoff is
	// one-way from here.
	respondJSON(w, http.StatusCreated, CheckoutSessionResponseDTO{ID: session.ID, URL: session.URL})
}

// handleCheckoutError collapses every initiation failure into one
// user-facing notification while keeping distinct codes for support. The
// cart is untouched on all of these paths.
func handleCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "checkout initiation failed", "error", err)

	code := "checkout_failed"
	switch {
	case errors.Is(err, checkout.ErrMalformedSessionResponse):
		code = "malformed_session_response"
	case errors.Is(err, checkout.ErrInvalidSessionResponse):
		code = "invalid_session_response"
	}
	respondError(w, http.StatusBadGateway, code, "failed to create checkout session")
}
