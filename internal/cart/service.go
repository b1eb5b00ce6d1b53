package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Service fronts a Store with read coalescing and change notification. All
// mutations funnel through the enumerated operations; dependents are notified
// only after the mutation has been applied, so a subscriber can never observe
// a pre-clear cart after the clear.
type Service struct {
	store Store
	sfg   singleflight.Group // Prevents stampede on concurrent reads of one cart

	subMu sync.Mutex
	subs  map[string][]chan domain.Cart
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		subs:  make(map[string][]chan domain.Cart),
	}
}

func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		return s.store.Get(ctx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

func (s *Service) AddItem(ctx context.Context, cartID string, product domain.Product, quantity int64) (*domain.Cart, error) {
	cart, err := s.store.AddItem(ctx, cartID, product, quantity)
	if err != nil {
		return nil, err
	}
	s.notify(cart)
	return cart, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int64) (*domain.Cart, error) {
	cart, err := s.store.UpdateQuantity(ctx, cartID, productID, quantity)
	if err != nil {
		return nil, err
	}
	s.notify(cart)
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (*domain.Cart, error) {
	cart, err := s.store.RemoveItem(ctx, cartID, productID)
	if err != nil {
		return nil, err
	}
	s.notify(cart)
	return cart, nil
}

func (s *Service) Clear(ctx context.Context, cartID string) error {
	if err := s.store.Clear(ctx, cartID); err != nil {
		return err
	}
	s.notify(&domain.Cart{ID: cartID})
	return nil
}

func (s *Service) SessionApplied(ctx context.Context, cartID, sessionID string) (bool, error) {
	return s.store.SessionApplied(ctx, cartID, sessionID)
}

func (s *Service) MarkSessionApplied(ctx context.Context, cartID, sessionID string) (bool, error) {
	return s.store.MarkSessionApplied(ctx, cartID, sessionID)
}

// Subscribe registers interest in changes to one cart. The returned channel
// receives a snapshot after each mutation; slow receivers miss updates rather
// than block mutations. Call the cancel func to unsubscribe.
func (s *Service) Subscribe(cartID string) (<-chan domain.Cart, func()) {
	ch := make(chan domain.Cart, 1)

	s.subMu.Lock()
	s.subs[cartID] = append(s.subs[cartID], ch)
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		subs := s.subs[cartID]
		for i, c := range subs {
			if c == ch {
				s.subs[cartID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(s.subs[cartID]) == 0 {
			delete(s.subs, cartID)
		}
	}
	return ch, cancel
}

func (s *Service) notify(cart *domain.Cart) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs[cart.ID] {
		select {
		case ch <- *cart:
		default:
			// drop the stale snapshot, replace with the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- *cart:
			default:
				slog.Debug("cart subscriber not keeping up", "cart_id", cart.ID)
			}
		}
	}
}
