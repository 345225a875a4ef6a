package http

import (
	"context"
	"net/http"
	"time"

	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
	commonhttp "github.com/jakobkordez/wmm-reborn/internal/common/http"
	"github.com/jakobkordez/wmm-reborn/internal/common/jwtverify"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
	"github.com/jakobkordez/wmm-reborn/internal/user/domain"
	"github.com/jakobkordez/wmm-reborn/internal/user/service"
)

type Profiles interface {
	GetPublicProfile(ctx context.Context, username string) (service.PublicProfile, error)
	GetOwnProfile(ctx context.Context, id domain.ID) (service.OwnProfile, error)
}

type Handler struct {
	profiles Profiles
	errs     *commonhttp.ErrorHandler
	timeout  time.Duration
}

func NewHandler(profiles Profiles, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		profiles: profiles,
		errs:     commonhttp.NewErrorHandler(log),
		timeout:  timeout,
	}
}

// RegisterRoutes mounts the profile routes. requireAuth guards the caller's own profile.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	withTimeout := commonhttp.WithTimeout(h.timeout)
	mux.Handle("GET /profile", requireAuth(withTimeout(h.ownProfile)))
	mux.HandleFunc("GET /profile/{username}", withTimeout(h.publicProfile))
}

func (h *Handler) ownProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errs.HandleError(w, r, commonerrors.ErrAuthRequired)
		return
	}

	profile, err := h.profiles.GetOwnProfile(r.Context(), domain.ID(claims.UserID))
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) publicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetPublicProfile(r.Context(), r.PathValue("username"))
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, profile)
}
