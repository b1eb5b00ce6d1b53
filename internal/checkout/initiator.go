package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
)

type CartReader interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
}

type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, items []domain.CheckoutItem, successURL, cancelURL string) (string, error)
}

// Initiator builds the checkout line-item snapshot from the cart and opens a
// processor-hosted session through the backend. It never mutates the cart on
// any path, so the shopper can retry after a failure.
type Initiator struct {
	carts    CartReader
	sessions SessionCreator
}

func NewInitiator(carts CartReader, sessions SessionCreator) *Initiator {
	return &Initiator{carts: carts, sessions: sessions}
}

// Initiate snapshots the cart, creates the session, and validates the reply
// envelope. The returned URL is for a full browser navigation; this is a
// one-way handoff and no further state transition happens here.
//
// An empty cart is not rejected locally: the item list is sent as-is and the
// backend's own rejection surfaces as a remote failure. Guarding the button
// is the UI layer's job.
func (i *Initiator) Initiate(ctx context.Context, cartID, successURL, cancelURL string) (domain.CheckoutSession, error) {
	cart, err := i.carts.Get(ctx, cartID)
	if err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("read cart: %w", err)
	}

	items := domain.SnapshotLines(cart.Lines)

	encoded, err := i.sessions.CreateCheckoutSession(ctx, items, successURL, cancelURL)
	if err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}

	session, err := decodeSession(encoded)
	if err != nil {
		return domain.CheckoutSession{}, err
	}

	slog.InfoContext(ctx, "checkout session created",
		"cart_id", cartID, "session_id", session.ID, "items", len(items))
	return session, nil
}

func decodeSession(encoded string) (domain.CheckoutSession, error) {
	var session domain.CheckoutSession
	if err := json.Unmarshal([]byte(encoded), &session); err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("%w: %v", ErrMalformedSessionResponse, err)
	}
	if strings.TrimSpace(session.URL) == "" {
		return domain.CheckoutSession{}, ErrInvalidSessionResponse
	}
	return session, nil
}
