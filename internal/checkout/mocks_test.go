package checkout

import (
	"context"
	"errors"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
)

// mockCarts implements CartReader and CartMutator for testing
type mockCarts struct {
	cart *domain.Cart
	err  error

	clearCalls int
	clearFails int // first N Clear calls fail
	applied    map[string]map[string]struct{}
}

func newMockCarts(cart *domain.Cart) *mockCarts {
	return &mockCarts{cart: cart, applied: make(map[string]map[string]struct{})}
}

func (m *mockCarts) Get(context.Context, string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *mockCarts) Clear(_ context.Context, _ string) error {
	if m.clearFails > 0 {
		m.clearFails--
		return errors.New("store unavailable")
	}
	m.clearCalls++
	m.cart = &domain.Cart{ID: m.cart.ID}
	return nil
}

func (m *mockCarts) SessionApplied(_ context.Context, cartID, sessionID string) (bool, error) {
	_, done := m.applied[cartID][sessionID]
	return done, nil
}

func (m *mockCarts) MarkSessionApplied(_ context.Context, cartID, sessionID string) (bool, error) {
	sessions, ok := m.applied[cartID]
	if !ok {
		sessions = make(map[string]struct{})
		m.applied[cartID] = sessions
	}
	if _, done := sessions[sessionID]; done {
		return false, nil
	}
	sessions[sessionID] = struct{}{}
	return true, nil
}

// mockSessionCreator implements SessionCreator for testing
type mockSessionCreator struct {
	encoded string
	err     error

	gotItems      []domain.CheckoutItem
	gotSuccessURL string
	gotCancelURL  string
	calls         int
}

func (m *mockSessionCreator) CreateCheckoutSession(_ context.Context, items []domain.CheckoutItem, successURL, cancelURL string) (string, error) {
	m.calls++
	m.gotItems = items
	m.gotSuccessURL = successURL
	m.gotCancelURL = cancelURL
	if m.err != nil {
		return "", m.err
	}
	return m.encoded, nil
}

// mockStatusFetcher implements StatusFetcher for testing
type mockStatusFetcher struct {
	status domain.SessionStatus
	err    error
	calls  int
}

func (m *mockStatusFetcher) GetSessionStatus(context.Context, string) (domain.SessionStatus, error) {
	m.calls++
	if m.err != nil {
		return domain.SessionStatus{}, m.err
	}
	return m.status, nil
}

// mockPublisher implements EventPublisher for testing
type mockPublisher struct {
	err   error
	calls int

	gotCartID    string
	gotSessionID string
}

func (m *mockPublisher) OrderCompleted(_ context.Context, cartID, sessionID string) error {
	m.calls++
	m.gotCartID = cartID
	m.gotSessionID = sessionID
	return m.err
}
