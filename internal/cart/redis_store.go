package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis so carts survive instance restarts for
// the lifetime of the shopper's session. Values are JSON with a sliding TTL.
// A cart id belongs to exactly one browser session, so read-modify-write per
// key needs no cross-writer coordination; the one operation that must be
// atomic across repeated observations, MarkSessionApplied, uses SETNX.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		baseTTL: 24 * time.Hour,
	}
}

func (r *RedisStore) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return emptyCart(cartID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}
	return &cart, nil
}

func (r *RedisStore) AddItem(ctx context.Context, cartID string, product domain.Product, quantity int64) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := r.Get(ctx, cartID)
	if err != nil {
		return nil, err
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

	if err := r.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *RedisStore) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int64) (*domain.Cart, error) {
	cart, err := r.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	i := cart.FindLine(productID)
	if i < 0 {
		return cart, nil
	}

	if quantity <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	} else {
		cart.Lines[i].Quantity = quantity
	}
	cart.UpdatedAt = time.Now()

	if err := r.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *RedisStore) RemoveItem(ctx context.Context, cartID, productID string) (*domain.Cart, error) {
	return r.UpdateQuantity(ctx, cartID, productID, 0)
}

func (r *RedisStore) Clear(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) SessionApplied(ctx context.Context, cartID, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, appliedKey(cartID, sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

func (r *RedisStore) MarkSessionApplied(ctx context.Context, cartID, sessionID string) (bool, error) {
	first, err := r.client.SetNX(ctx, appliedKey(cartID, sessionID), 1, r.ttl()).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return first, nil
}

func (r *RedisStore) save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(cart.ID), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) ttl() time.Duration {
	jitter := time.Duration(rand.Intn(30)) * time.Minute
	return r.baseTTL + jitter
}

func cartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}

func appliedKey(cartID, sessionID string) string {
	return fmt.Sprintf("cart:%s:applied:%s", cartID, sessionID)
}
