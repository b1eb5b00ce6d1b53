package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/cart"
	"github.com/caffeinepub/ocarina-store-clone/internal/checkout"
	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusFetcherMock implements checkout.StatusFetcher for testing
type statusFetcherMock struct {
	status domain.SessionStatus
	err    error
}

func (m *statusFetcherMock) GetSessionStatus(context.Context, string) (domain.SessionStatus, error) {
	if m.err != nil {
		return domain.SessionStatus{}, m.err
	}
	return m.status, nil
}

// publisherMock implements checkout.EventPublisher for testing
type publisherMock struct {
	calls int
}

func (m *publisherMock) OrderCompleted(context.Context, string, string) error {
	m.calls++
	return nil
}

func newPaymentFixture(t *testing.T, fetcher *statusFetcherMock) (*PaymentHandler, *cart.Service, *publisherMock) {
	t.Helper()
	carts := cart.NewService(cart.NewMemoryStore())
	events := &publisherMock{}
	handler := NewPaymentHandler(checkout.NewReconciler(carts, fetcher, events), 5*time.Second)
	return handler, carts, events
}

func decodeOutcome(t *testing.T, rec *httptest.ResponseRecorder) PaymentOutcomeDTO {
	t.Helper()
	var dto PaymentOutcomeDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
	return dto
}

func TestPaymentSuccess_NoSessionIDStaysIdle(t *testing.T) {
	handler, carts, events := newPaymentFixture(t, &statusFetcherMock{})

	_, err := carts.AddItem(context.Background(), "cart-1",
		domain.Product{ID: "a", PriceInCents: 500, Currency: "USD"}, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := withCartID(httptest.NewRequest("GET", "/api/v1/payment/success", nil), "cart-1")

	handler.PaymentSuccess(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeOutcome(t, rec)
	assert.Equal(t, string(checkout.StateIdle), dto.State)
	assert.Empty(t, dto.OrderID)

	// no session id, no clear
	c, _ := carts.Get(context.Background(), "cart-1")
	assert.False(t, c.IsEmpty())
	assert.Equal(t, 0, events.calls)
}

func TestPaymentSuccess_CompletedClearsCartExactlyOnce(t *testing.T) {
	fetcher := &statusFetcherMock{status: domain.SessionStatus{State: domain.SessionCompleted}}
	handler, carts, events := newPaymentFixture(t, fetcher)

	_, err := carts.AddItem(context.Background(), "cart-1",
		domain.Product{ID: "a", PriceInCents: 500, Currency: "USD"}, 2)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := withCartID(httptest.NewRequest("GET", "/api/v1/payment/success?session_id=sess-1", nil), "cart-1")
	handler.PaymentSuccess(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeOutcome(t, rec)
	assert.Equal(t, string(checkout.StateCompleted), dto.State)
	assert.Equal(t, "sess-1", dto.OrderID)
	assert.True(t, dto.CartCleared)

	c, _ := carts.Get(context.Background(), "cart-1")
	assert.True(t, c.IsEmpty())

	// browser refresh of the success page: same resolved value, no re-fire
	rec = httptest.NewRecorder()
	req = withCartID(httptest.NewRequest("GET", "/api/v1/payment/success?session_id=sess-1", nil), "cart-1")
	handler.PaymentSuccess(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dto = decodeOutcome(t, rec)
	assert.Equal(t, string(checkout.StateCompleted), dto.State)
	assert.False(t, dto.CartCleared)
	assert.Equal(t, 1, events.calls)
}

func TestPaymentSuccess_LookupFailureReportsChecking(t *testing.T) {
	fetcher := &statusFetcherMock{err: errors.New("backend timeout")}
	handler, carts, _ := newPaymentFixture(t, fetcher)

	_, err := carts.AddItem(context.Background(), "cart-1",
		domain.Product{ID: "a", PriceInCents: 500, Currency: "USD"}, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := withCartID(httptest.NewRequest("GET", "/api/v1/payment/success?session_id=sess-1", nil), "cart-1")
	handler.PaymentSuccess(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	dto := decodeOutcome(t, rec)
	assert.Equal(t, string(checkout.StateChecking), dto.State)

	// unresolved, cart untouched
	c, _ := carts.Get(context.Background(), "cart-1")
	assert.False(t, c.IsEmpty())
}

func TestPaymentFailure_NoSessionIDIsPlainCancellation(t *testing.T) {
	handler, _, _ := newPaymentFixture(t, &statusFetcherMock{})

	rec := httptest.NewRecorder()
	req := withCartID(httptest.NewRequest("GET", "/api/v1/payment/failure", nil), "cart-1")
	handler.PaymentFailure(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeOutcome(t, rec)
	assert.Equal(t, string(checkout.StateFailed), dto.State)
	assert.True(t, dto.Cancelled)
}

func TestPaymentFailure_ProcessingErrorSurfacesDetail(t *testing.T) {
	fetcher := &statusFetcherMock{status: domain.SessionStatus{State: domain.SessionFailed, Error: "card declined"}}
	handler, carts, _ := newPaymentFixture(t, fetcher)

	_, err := carts.AddItem(context.Background(), "cart-1",
		domain.Product{ID: "a", PriceInCents: 500, Currency: "USD"}, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := withCartID(httptest.NewRequest("GET", "/api/v1/payment/failure?session_id=sess-1", nil), "cart-1")
	handler.PaymentFailure(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeOutcome(t, rec)
	assert.Equal(t, string(checkout.StateFailed), dto.State)
	assert.False(t, dto.Cancelled)
	assert.Equal(t, "card declined", dto.Error)

	// failed payment preserves the cart for retry
	c, _ := carts.Get(context.Background(), "cart-1")
	assert.False(t, c.IsEmpty())
}
