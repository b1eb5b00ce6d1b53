package http

import (
	"context"
	"net/http"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/authz"
	"github.com/caffeinepub/ocarina-store-clone/internal/backend"
)

type ProfileGetter interface {
	GetCallerUserProfile(ctx context.Context, identity string) (*backend.UserProfile, error)
}

type MeHandler struct {
	gate     *authz.Gate
	profiles ProfileGetter
	timeout  time.Duration
}

func NewMeHandler(gate *authz.Gate, profiles ProfileGetter, timeout time.Duration) *MeHandler {
	return &MeHandler{
		gate:     gate,
		profiles: profiles,
		timeout:  timeout,
	}
}

type AdminResolutionDTO struct {
	State   string `json:"state"`
	IsAdmin bool   `json:"is_admin"`
}

// GET /api/v1/me/is-admin
//
// Always answers 200; an unauthenticated caller or a failed remote check is a
// resolved non-admin, never an error.
func (h *MeHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res := h.gate.IsAdmin(ctx, getIdentityFromContext(r.Context()))
	respondJSON(w, http.StatusOK, AdminResolutionDTO{
		State:   string(res.State),
		IsAdmin: res.IsAdmin,
	})
}

// GET /api/v1/me/profile
func (h *MeHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity := getIdentityFromContext(r.Context())
	if identity == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}

	profile, err := h.profiles.GetCallerUserProfile(ctx, identity)
	if err != nil {
		respondError(w, http.StatusBadGateway, "backend_unavailable", "failed to load profile")
		return
	}

	// nil means no profile saved yet; the layout treats that as "needs setup"
	respondJSON(w, http.StatusOK, profile)
}
