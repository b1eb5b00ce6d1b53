package cart

import (
	"context"
	"sync"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
)

// MemoryStore implements Store with in-memory storage. Mutations for a cart
// are serialized by the lock, so a clear can never race a read of the
// pre-clear cart.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart

	// applied remembers every session id whose completion already cleared a
	// cart, keyed by cart id. Kept outside the cart so a cleared (deleted)
	// cart still rejects a re-application, and kept as a set so an older
	// session stays rejected after newer ones are applied.
	applied map[string]map[string]struct{}
}

// NewMemoryStore creates a new in-memory cart store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:   make(map[string]*domain.Cart),
		applied: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Get(_ context.Context, cartID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, exists := s.carts[cartID]
	if !exists {
		return emptyCart(cartID), nil
	}
	return copyCart(cart), nil
}

func (s *MemoryStore) AddItem(_ context.Context, cartID string, product domain.Product, quantity int64) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.carts[cartID]
	if !exists {
		cart = emptyCart(cartID)
		s.carts[cartID] = cart
	}

	if len(cart.Lines) > 0 && cart.Lines[0].Product.Currency != product.Currency {
		return nil, ErrCurrencyMismatch
	}

	if i := cart.FindLine(product.ID); i >= 0 {
		cart.Lines[i].Quantity += quantity
	} else {
		cart.Lines = append(cart.Lines, domain.CartLine{Product: product, Quantity: quantity})
	}
	cart.UpdatedAt = time.Now()

	return copyCart(cart), nil
}

func (s *MemoryStore) UpdateQuantity(_ context.Context, cartID, productID string, quantity int64) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.carts[cartID]
	if !exists {
		return emptyCart(cartID), nil
	}

	i := cart.FindLine(productID)
	if i < 0 {
		return copyCart(cart), nil
	}

	if quantity <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	} else {
		cart.Lines[i].Quantity = quantity
	}
	cart.UpdatedAt = time.Now()

	return copyCart(cart), nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, cartID, productID string) (*domain.Cart, error) {
	return s.UpdateQuantity(ctx, cartID, productID, 0)
}

func (s *MemoryStore) Clear(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, cartID)
	return nil
}

func (s *MemoryStore) SessionApplied(_ context.Context, cartID, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, done := s.applied[cartID][sessionID]
	return done, nil
}

func (s *MemoryStore) MarkSessionApplied(_ context.Context, cartID, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, ok := s.applied[cartID]
	if !ok {
		sessions = make(map[string]struct{})
		s.applied[cartID] = sessions
	}
	if _, done := sessions[sessionID]; done {
		return false, nil
	}
	sessions[sessionID] = struct{}{}
	return true, nil
}

func emptyCart(cartID string) *domain.Cart {
	return &domain.Cart{ID: cartID}
}

func copyCart(cart *domain.Cart) *domain.Cart {
	cp := *cart
	cp.Lines = make([]domain.CartLine, len(cart.Lines))
	copy(cp.Lines, cart.Lines)
	return &cp
}
