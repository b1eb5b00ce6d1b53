package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_IdleWithoutSessionID(t *testing.T) {
	carts := newMockCarts(cartWithLines())
	status := &mockStatusFetcher{}
	rec := NewReconciler(carts, status, &mockPublisher{})

	outcome, err := rec.Resolve(context.Background(), "cart-1", "")
	require.NoError(t, err)

	assert.Equal(t, StateIdle, outcome.State)
	assert.Equal(t, 0, status.calls)
	assert.Equal(t, 0, carts.clearCalls)
}

func TestReconciler_CompletedClearsCartOnce(t *testing.T) {
	carts := newMockCarts(cartWithLines())
	status := &mockStatusFetcher{status: domain.SessionStatus{State: domain.SessionCompleted}}
	events := &mockPublisher{}
	rec := NewReconciler(carts, status, events)

	outcome, err := rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, outcome.State)
	assert.True(t, outcome.CartCleared)
	assert.Equal(t, 1, carts.clearCalls)
	assert.Equal(t, 1, events.calls)
	assert.Equal(t, "sess-1", events.gotSessionID)

	// The status query resolving again with the same value must not re-fire
	// the clear or the event.
	outcome, err = rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, outcome.State)
	assert.False(t, outcome.CartCleared)
	assert.Equal(t, 1, carts.clearCalls)
	assert.Equal(t, 1, events.calls)
}

func TestReconciler_NewSessionIsFreshTransition(t *testing.T) {
	carts := newMockCarts(cartWithLines())
	status := &mockStatusFetcher{status: domain.SessionStatus{State: domain.SessionCompleted}}
	events := &mockPublisher{}
	rec := NewReconciler(carts, status, events)

	_, err := rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.NoError(t, err)

	outcome, err := rec.Resolve(context.Background(), "cart-1", "sess-2")
	require.NoError(t, err)

	assert.True(t, outcome.CartCleared)
	assert.Equal(t, 2, carts.clearCalls)
	assert.Equal(t, 2, events.calls)

	// Back-navigation to the older session's success page: sess-1 was already
	// applied, nothing may re-fire.
	outcome, err = rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, outcome.State)
	assert.False(t, outcome.CartCleared)
	assert.Equal(t, 2, carts.clearCalls)
	assert.Equal(t, 2, events.calls)
}

func TestReconciler_ClearFailureRetriesOnNextObservation(t *testing.T) {
	carts := newMockCarts(cartWithLines())
	carts.clearFails = 1
	status := &mockStatusFetcher{status: domain.SessionStatus{State: domain.SessionCompleted}}
	events := &mockPublisher{}
	rec := NewReconciler(carts, status, events)

	outcome, err := rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.Error(t, err)

	// Unresolved, not falsely applied: the marker must stay unset so the next
	// observation can still clear.
	assert.ErrorIs(t, err, ErrStatusUnavailable)
	assert.Equal(t, StateChecking, outcome.State)
	assert.Equal(t, 0, carts.clearCalls)
	assert.Equal(t, 0, events.calls)

	outcome, err = rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, outcome.State)
	assert.True(t, outcome.CartCleared)
	assert.Equal(t, 1, carts.clearCalls)
	assert.Equal(t, 1, events.calls)
	assert.True(t, carts.cart.IsEmpty())
}

func TestReconciler_FailedNeverMutatesCart(t *testing.T) {
	carts := newMockCarts(cartWithLines())
	status := &mockStatusFetcher{status: domain.SessionStatus{State: domain.SessionFailed, Error: "card declined"}}
	events := &mockPublisher{}
	rec := NewReconciler(carts, status, events)

	outcome, err := rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, StateFailed, outcome.State)
	assert.False(t, outcome.Cancelled)
	assert.Equal(t, "card declined", outcome.Error)
	assert.Equal(t, 0, carts.clearCalls)
	assert.Equal(t, 0, events.calls)
	assert.Len(t, carts.cart.Lines, 1)
}

func TestReconciler_FailedWithoutDetailIsCancellation(t *testing.T) {
	carts := newMockCarts(cartWithLines())
	status := &mockStatusFetcher{status: domain.SessionStatus{State: domain.SessionFailed}}
	rec := NewReconciler(carts, status, &mockPublisher{})

	outcome, err := rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, StateFailed, outcome.State)
	assert.True(t, outcome.Cancelled)
	assert.Empty(t, outcome.Error)
}

func TestReconciler_LookupFailureStaysChecking(t *testing.T) {
	carts := newMockCarts(cartWithLines())
	status := &mockStatusFetcher{err: errors.New("backend timeout")}
	rec := NewReconciler(carts, status, &mockPublisher{})

	outcome, err := rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrStatusUnavailable)
	assert.Equal(t, StateChecking, outcome.State)
	assert.Equal(t, 0, carts.clearCalls)
	assert.Len(t, carts.cart.Lines, 1)
}

func TestReconciler_PublishFailureDoesNotFailResolution(t *testing.T) {
	carts := newMockCarts(cartWithLines())
	status := &mockStatusFetcher{status: domain.SessionStatus{State: domain.SessionCompleted}}
	events := &mockPublisher{err: errors.New("broker down")}
	rec := NewReconciler(carts, status, events)

	outcome, err := rec.Resolve(context.Background(), "cart-1", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, outcome.State)
	assert.True(t, outcome.CartCleared)
	assert.Equal(t, 1, carts.clearCalls)
}
