package domain

type SessionState string

const (
	SessionCompleted SessionState = "COMPLETED"
	SessionFailed    SessionState = "FAILED"
)

func (s SessionState) String() string {
	return string(s)
}

// SessionStatus is the resolved outcome of a checkout session as reported by
// the backend. There is no pending variant: the status is only queried once
// the processor has redirected the shopper back, at which point the session
// is already finalized.
type SessionStatus struct {
	State SessionState

	// Completed fields.
	UserPrincipal string
	Response      string

	// Failed field. Empty means the shopper cancelled; non-empty is a
	// processing error to surface for support.
	Error string
}

func (s SessionStatus) IsCompleted() bool {
	return s.State == SessionCompleted
}

func (s SessionStatus) IsFailed() bool {
	return s.State == SessionFailed
}

// IsCancellation reports whether a failed status represents a user-initiated
// cancellation rather than a genuine processing error.
func (s SessionStatus) IsCancellation() bool {
	return s.State == SessionFailed && s.Error == ""
}
