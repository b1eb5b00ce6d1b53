package checkout

import "errors"

var (
	// ErrMalformedSessionResponse means the encoded session string could not
	// be decoded. Kept distinct from remote-call failures.
	ErrMalformedSessionResponse = errors.New("malformed checkout session response")

	// ErrInvalidSessionResponse means the response decoded but the url field
	// is missing or blank. A backend contract violation, surfaced to the
	// shopper as a failed checkout start.
	ErrInvalidSessionResponse = errors.New("checkout session response missing url")

	// ErrStatusUnavailable means the session status lookup itself failed; the
	// reconciliation stays unresolved rather than asserting a false outcome.
	ErrStatusUnavailable = errors.New("session status unavailable")
)
