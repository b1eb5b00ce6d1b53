// Package backend is the HTTP client for the storefront backend collaborator:
// catalog reads, checkout session creation, session status lookup, and the
// caller identity/role operations. The wire protocol is owned by the backend;
// this client only validates envelope shape, never payment authenticity.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/domain"
	"github.com/caffeinepub/ocarina-store-clone/internal/requestid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrRemote covers transport failures and non-2xx replies.
	ErrRemote = errors.New("backend request failed")

	// ErrMalformedStatus means the session status payload could not be
	// decoded into a known variant. An unknown tag is malformed, it never
	// falls through silently.
	ErrMalformedStatus = errors.New("malformed session status response")

	// ErrNotFound maps 404 replies on resource lookups.
	ErrNotFound = errors.New("not found")
)

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name: "storefront-backend",
			// A 404 is a valid answer, not a backend outage.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound)
			},
		}),
	}
}

// CreateCheckoutSession asks the backend to open a processor-hosted checkout
// session. The reply body is an opaque encoded string; decoding it is the
// initiator's job, so that a decode failure stays distinct from a transport
// failure.
func (c *Client) CreateCheckoutSession(ctx context.Context, items []domain.CheckoutItem, successURL, cancelURL string) (string, error) {
	payload := struct {
		Items      []domain.CheckoutItem `json:"items"`
		SuccessURL string                `json:"success_url"`
		CancelURL  string                `json:"cancel_url"`
	}{items, successURL, cancelURL}

	body, err := c.do(ctx, http.MethodPost, "/api/v1/checkout/sessions", payload)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type sessionStatusDTO struct {
	Status        string `json:"status"`
	UserPrincipal string `json:"user_principal,omitempty"`
	Response      string `json:"response,omitempty"`
	Error         string `json:"error,omitempty"`
}

// GetSessionStatus looks up the resolved outcome of a checkout session.
// Read-only and idempotent on the backend side.
func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/checkout/sessions/"+sessionID+"/status", nil)
	if err != nil {
		return domain.SessionStatus{}, err
	}

	var dto sessionStatusDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.SessionStatus{}, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
	}

	switch dto.Status {
	case "completed":
		return domain.SessionStatus{
			State:         domain.SessionCompleted,
			UserPrincipal: dto.UserPrincipal,
			Response:      dto.Response,
		}, nil
	case "failed":
		return domain.SessionStatus{
			State: domain.SessionFailed,
			Error: dto.Error,
		}, nil
	default:
		return domain.SessionStatus{}, fmt.Errorf("%w: unknown status %q", ErrMalformedStatus, dto.Status)
	}
}

// IsCallerAdmin resolves the identity's authorization level. Callers must
// treat any error as non-admin; the authz gate enforces that.
func (c *Client) IsCallerAdmin(ctx context.Context, identity string) (bool, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/me/is-admin", nil, withIdentity(identity))
	if err != nil {
		return false, err
	}

	var dto struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := json.Unmarshal(body, &dto); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return dto.IsAdmin, nil
}

type UserProfile struct {
	Name string `json:"name"`
}

// GetCallerUserProfile returns nil without error when no profile exists yet.
func (c *Client) GetCallerUserProfile(ctx context.Context, identity string) (*UserProfile, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/me/profile", nil, withIdentity(identity))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return &profile, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/products", nil)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/products/"+productID, nil)
	if err != nil {
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return &product, nil
}

type requestOption func(*http.Request)

func withIdentity(identity string) requestOption {
	return func(req *http.Request) {
		if identity != "" {
			req.Header.Set("Authorization", "Bearer "+identity)
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any, opts ...requestOption) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request failed: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := requestid.From(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	for _, opt := range opts {
		opt(req)
	}

	return c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemote, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemote, err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, truncate(body, 256))
		}
		return body, nil
	})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
