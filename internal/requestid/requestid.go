// Package requestid carries a per-request correlation id through contexts so
// the HTTP layer and outbound backend calls agree on it.
package requestid

import "context"

type ctxKey struct{}

func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func From(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}
