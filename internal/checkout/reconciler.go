package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"golang.org/x/sync/singleflight"
)

// State of one reconciliation attempt. There is no polling loop: the status
// is requested once per outcome-page view, after the processor has already
// finalized the session.
type State string

const (
	// StateIdle means no session id was present in the return URL.
	StateIdle State = "IDLE"
	// StateChecking means the lookup did not resolve; the page shows a
	// loading state and the next view retries.
	StateChecking State = "CHECKING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// Outcome is what the payment outcome pages render from.
type Outcome struct {
	State     State
	SessionID string

	// CartCleared is true only on the observation that transitioned the
	// session into completed; repeats of the same resolved value report
	// false so one-shot side effects (toasts, analytics) do not re-fire.
	CartCleared bool

	// Cancelled distinguishes a shopper-initiated abort from a processing
	// error; Error carries the detail in the latter case.
	Cancelled bool
	Error     string
}

type StatusFetcher interface {
	GetSessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error)
}

type CartMutator interface {
	Clear(ctx context.Context, cartID string) error
	SessionApplied(ctx context.Context, cartID, sessionID string) (bool, error)
	MarkSessionApplied(ctx context.Context, cartID, sessionID string) (bool, error)
}

type EventPublisher interface {
	OrderCompleted(ctx context.Context, cartID, sessionID string) error
}

// Reconciler resolves a checkout session's outcome after the processor
// redirects the shopper back, and applies the local state change: a completed
// session clears the cart exactly once, a failed one leaves it intact for
// retry.
type Reconciler struct {
	carts  CartMutator
	status StatusFetcher
	events EventPublisher
	sfg    singleflight.Group // coalesces re-issued lookups per session id
}

func NewReconciler(carts CartMutator, status StatusFetcher, events EventPublisher) *Reconciler {
	return &Reconciler{carts: carts, status: status, events: events}
}

// Resolve runs one Idle -> Checking -> Resolved pass for the session id
// recovered from the return URL. An empty id stays Idle with no remote call.
// A lookup failure keeps the state at Checking and returns an
// ErrStatusUnavailable-wrapped error; it never asserts a false outcome.
func (r *Reconciler) Resolve(ctx context.Context, cartID, sessionID string) (Outcome, error) {
	if sessionID == "" {
		return Outcome{State: StateIdle}, nil
	}

	// Keyed by session id so a superseding id never receives a stale
	// result from the one it replaced.
	v, err, _ := r.sfg.Do(sessionID, func() (interface{}, error) {
		return r.status.GetSessionStatus(ctx, sessionID)
	})
	if err != nil {
		return Outcome{State: StateChecking, SessionID: sessionID},
			fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}
	status := v.(domain.SessionStatus)

	switch status.State {
	case domain.SessionCompleted:
		return r.applyCompleted(ctx, cartID, sessionID)
	case domain.SessionFailed:
		return Outcome{
			State:     StateFailed,
			SessionID: sessionID,
			Cancelled: status.IsCancellation(),
			Error:     status.Error,
		}, nil
	default:
		// The fetcher decodes exhaustively, so this is unreachable unless a
		// new variant is added without handling here.
		return Outcome{State: StateChecking, SessionID: sessionID},
			fmt.Errorf("%w: unhandled state %q", ErrStatusUnavailable, status.State)
	}
}

// applyCompleted clears the cart and publishes the order event on the first
// observation of a completed session. The clear is edge-triggered on the
// session id marker, not level-triggered on the resolved value, so component
// remounts and cache revalidations re-observing the same status are inert.
func (r *Reconciler) applyCompleted(ctx context.Context, cartID, sessionID string) (Outcome, error) {
	applied, err := r.carts.SessionApplied(ctx, cartID, sessionID)
	if err != nil {
		return Outcome{State: StateChecking, SessionID: sessionID},
			fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}
	if applied {
		// Already handled; anything the shopper put in the cart since then
		// stays.
		return Outcome{State: StateCompleted, SessionID: sessionID}, nil
	}

	// Clear before marking: the marker is only consumed once the clear has
	// stuck, so a transient store failure leaves the marker unset and the next
	// observation retries. A duplicate clear from the window between the two
	// steps is harmless, Clear is idempotent.
	if err := r.carts.Clear(ctx, cartID); err != nil {
		return Outcome{State: StateChecking, SessionID: sessionID},
			fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}

	first, err := r.carts.MarkSessionApplied(ctx, cartID, sessionID)
	if err != nil {
		return Outcome{State: StateChecking, SessionID: sessionID},
			fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}

	if first {
		if err := r.events.OrderCompleted(ctx, cartID, sessionID); err != nil {
			// The order is confirmed either way; the event stream catches up
			// elsewhere.
			slog.WarnContext(ctx, "order-completed event publish failed",
				"cart_id", cartID, "session_id", sessionID, "error", err)
		}
		slog.InfoContext(ctx, "checkout session completed, cart cleared",
			"cart_id", cartID, "session_id", sessionID)
	}

	return Outcome{State: StateCompleted, SessionID: sessionID, CartCleared: first}, nil
}
