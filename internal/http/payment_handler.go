package http

import (
	"context"
	"net/http"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/checkout"
)

type PaymentHandler struct {
	reconciler *checkout.Reconciler
	timeout    time.Duration
}

func NewPaymentHandler(reconciler *checkout.Reconciler, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		reconciler: reconciler,
		timeout:    timeout,
	}
}

type PaymentOutcomeDTO struct {
	State       string `json:"state"`
	OrderID     string `json:"order_id,omitempty"`
	CartCleared bool   `json:"cart_cleared"`
	Cancelled   bool   `json:"cancelled,omitempty"`
	Error       string `json:"error,omitempty"`
	Message     string `json:"message"`
}

// GET /api/v1/payment/success?session_id=...
//
// The processor appends session_id to the success URL. Without it the
// reconciler stays idle and the page shows a generic thank-you with no order
// confirmation detail. Reloads and back/forward visits re-enter here safely:
// only the first completed observation clears the cart.
func (h *PaymentHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := r.URL.Query().Get("session_id")
	cartID := getCartIDFromContext(r.Context())

	outcome, err := h.reconciler.Resolve(ctx, cartID, sessionID)
	if err != nil {
		// Unresolved, not failed: the page keeps its loading state and a
		// refresh retries the lookup.
		respondJSON(w, http.StatusAccepted, PaymentOutcomeDTO{
			State:   string(checkout.StateChecking),
			Message: "confirming your payment, please refresh in a moment",
		})
		return
	}

	respondJSON(w, http.StatusOK, toOutcomeDTO(outcome))
}

// GET /api/v1/payment/failure?session_id=...
//
// The cancel return URL usually carries no session id; that is a plain
// cancellation. When one is present the resolved status tells a cancellation
// (no error detail) apart from a processing error worth surfacing.
func (h *PaymentHandler) PaymentFailure(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondJSON(w, http.StatusOK, PaymentOutcomeDTO{
			State:     string(checkout.StateFailed),
			Cancelled: true,
			Message:   "your payment was cancelled, no charges were made",
		})
		return
	}

	outcome, err := h.reconciler.Resolve(ctx, getCartIDFromContext(r.Context()), sessionID)
	if err != nil {
		respondJSON(w, http.StatusAccepted, PaymentOutcomeDTO{
			State:   string(checkout.StateChecking),
			Message: "checking payment status, please refresh in a moment",
		})
		return
	}

	respondJSON(w, http.StatusOK, toOutcomeDTO(outcome))
}

func toOutcomeDTO(outcome checkout.Outcome) PaymentOutcomeDTO {
	dto := PaymentOutcomeDTO{
		State:       string(outcome.State),
		CartCleared: outcome.CartCleared,
		Cancelled:   outcome.Cancelled,
		Error:       outcome.Error,
	}

	switch outcome.State {
	case checkout.StateIdle:
		dto.Message = "thank you for your purchase"
	case checkout.StateCompleted:
		dto.OrderID = outcome.SessionID
		dto.Message = "payment successful, your order has been confirmed"
	case checkout.StateFailed:
		if outcome.Cancelled {
			dto.Message = "your payment was cancelled, no charges were made"
		} else {
			dto.Message = "payment failed, please try again or contact support"
		}
	}
	return dto
}
