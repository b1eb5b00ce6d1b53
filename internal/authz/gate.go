// Package authz resolves the caller's authorization level. The gate fails
// closed: any indeterminate outcome is reported as non-admin, never as an
// error the view layer could misread as "allowed".
package authz

import (
	"context"
	"log/slog"
)

type State string

const (
	// StateUnauthenticated means no identity was presented; no remote call
	// is issued and the answer is non-admin.
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateResolved        State = "RESOLVED"
)

type Resolution struct {
	State   State
	IsAdmin bool
}

type AdminChecker interface {
	IsCallerAdmin(ctx context.Context, identity string) (bool, error)
}

type Gate struct {
	checker AdminChecker
}

func NewGate(checker AdminChecker) *Gate {
	return &Gate{checker: checker}
}

// IsAdmin resolves the identity's admin standing. Errors and panics from the
// remote check are downgraded to a resolved non-admin answer.
func (g *Gate) IsAdmin(ctx context.Context, identity string) (res Resolution) {
	if identity == "" {
		return Resolution{State: StateUnauthenticated, IsAdmin: false}
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "admin check panicked, treating as non-admin", "panic", rec)
			res = Resolution{State: StateResolved, IsAdmin: false}
		}
	}()

	isAdmin, err := g.checker.IsCallerAdmin(ctx, identity)
	if err != nil {
		slog.WarnContext(ctx, "admin check failed, treating as non-admin", "error", err)
		return Resolution{State: StateResolved, IsAdmin: false}
	}
	return Resolution{State: StateResolved, IsAdmin: isAdmin}
}
