package cart

import (
	"context"
	"errors"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
)

// Common errors returned by the store
var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrCurrencyMismatch = errors.New("product currency does not match cart currency")
)

// Store defines the interface for cart storage operations. Carts are keyed by
// a per-browser-session cart id. A missing cart reads as an empty cart, never
// as an error.
type Store interface {
	// Get returns a copy of the cart for the given id.
	Get(ctx context.Context, cartID string) (*domain.Cart, error)

	// AddItem merges quantity into an existing line for the same product id,
	// or appends a new line. Quantity must be >= 1.
	AddItem(ctx context.Context, cartID string, product domain.Product, quantity int64) (*domain.Cart, error)

	// UpdateQuantity sets a line's quantity; a value <= 0 removes the line.
	// Unknown product ids are a no-op.
	UpdateQuantity(ctx context.Context, cartID, productID string, quantity int64) (*domain.Cart, error)

	// RemoveItem deletes the line if present; no-op otherwise.
	RemoveItem(ctx context.Context, cartID, productID string) (*domain.Cart, error)

	// Clear empties the cart. Idempotent: clearing an empty or missing cart
	// succeeds.
	Clear(ctx context.Context, cartID string) error

	// SessionApplied reports whether sessionID's completed status has already
	// been applied to this cart.
	SessionApplied(ctx context.Context, cartID, sessionID string) (bool, error)

	// MarkSessionApplied records that sessionID's completed status has been
	// applied to this cart. It returns true only for the first application of
	// a given (cart, session) pair, so completion side effects fire exactly
	// once per session even when an older session is re-observed later.
	MarkSessionApplied(ctx context.Context, cartID, sessionID string) (bool, error)
}
