package cart

import (
	"context"
	"testing"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_MutationsFlowThroughStore(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cart-1", testProduct("a", 500), 2)
	require.NoError(t, err)

	c, err := svc.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.TotalItems())

	_, err = svc.UpdateQuantity(ctx, "cart-1", "a", 5)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, "cart-1", "a")
	require.NoError(t, err)

	c, err = svc.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestService_SubscriberSeesPostMutationState(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	ch, cancel := svc.Subscribe("cart-1")
	defer cancel()

	_, err := svc.AddItem(ctx, "cart-1", testProduct("a", 500), 2)
	require.NoError(t, err)

	select {
	case snapshot := <-ch:
		assert.Equal(t, int64(2), snapshot.TotalItems())
	case <-time.After(time.Second):
		t.Fatal("expected a cart snapshot after AddItem")
	}
}

func TestService_SubscriberSeesClearBeforeNextRead(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cart-1", testProduct("a", 500), 2)
	require.NoError(t, err)

	ch, cancel := svc.Subscribe("cart-1")
	defer cancel()

	require.NoError(t, svc.Clear(ctx, "cart-1"))

	// The notification carries the already-cleared cart: the clear is
	// applied before dependents hear about it.
	select {
	case snapshot := <-ch:
		assert.True(t, snapshot.IsEmpty())
	case <-time.After(time.Second):
		t.Fatal("expected a cart snapshot after Clear")
	}

	c, err := svc.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestService_SlowSubscriberGetsLatestSnapshot(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	ch, cancel := svc.Subscribe("cart-1")
	defer cancel()

	_, err := svc.AddItem(ctx, "cart-1", testProduct("a", 500), 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "cart-1", testProduct("a", 500), 1)
	require.NoError(t, err)

	// The buffered slot holds the most recent state, not the first.
	snapshot := <-ch
	assert.Equal(t, int64(2), snapshot.TotalItems())
}

func TestService_UnsubscribeStopsNotifications(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	ch, cancel := svc.Subscribe("cart-1")
	cancel()

	_, err := svc.AddItem(ctx, "cart-1", testProduct("a", 500), 1)
	require.NoError(t, err)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("unsubscribed channel should not receive snapshots")
		}
	default:
	}
}

func TestService_PropagatesStoreErrors(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.AddItem(context.Background(), "cart-1", domain.Product{ID: "a", Currency: "USD"}, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
