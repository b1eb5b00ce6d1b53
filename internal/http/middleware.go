package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/authz"
	"github.com/caffeinepub/ocarina-store-clone/internal/requestid"
	"github.com/google/uuid"
)

type ctxKey int

const (
	cartIDKey ctxKey = iota
	identityKey
)

const cartCookieName = "cart_id"

// CartSessionMiddleware assigns each browser session a cart id cookie. The
// cart id is the key for all cart state; a fresh visitor gets a fresh cart.
func CartSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cartID string
		if c, err := r.Cookie(cartCookieName); err == nil && c.Value != "" {
			cartID = c.Value
		} else {
			cartID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     cartCookieName,
				Value:    cartID,
				Path:     "/",
				MaxAge:   int((30 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), cartIDKey, cartID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityMiddleware extracts the caller identity from the Authorization
// header. Token validation is the backend's job; an absent header simply
// means an unauthenticated shopper.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if identity == r.Header.Get("Authorization") {
			identity = "" // header present but not a bearer token
		}

		ctx := context.WithValue(r.Context(), identityKey, strings.TrimSpace(identity))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := requestid.With(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly guards a subtree behind the authz gate: 401 without an identity,
// 403 for anyone the gate does not resolve as admin.
func AdminOnly(gate *authz.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := getIdentityFromContext(r.Context())
			if identity == "" {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "please log in to access the admin area")
				return
			}
			if res := gate.IsAdmin(r.Context(), identity); !res.IsAdmin {
				respondError(w, http.StatusForbidden, "permission_denied", "admin privileges are required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func getCartIDFromContext(ctx context.Context) string {
	if cartID, ok := ctx.Value(cartIDKey).(string); ok {
		return cartID
	}
	return ""
}

func getIdentityFromContext(ctx context.Context) string {
	if identity, ok := ctx.Value(identityKey).(string); ok {
		return identity
	}
	return ""
}
