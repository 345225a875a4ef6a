package http

import (
	"context"
	"net/http"
	"time"

	authdomain "github.com/jakobkordez/wmm-reborn/internal/auth/domain"
	"github.com/jakobkordez/wmm-reborn/internal/auth/service"
	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
	commonhttp "github.com/jakobkordez/wmm-reborn/internal/common/http"
	"github.com/jakobkordez/wmm-reborn/internal/common/jwtverify"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
)

const (
	registerFieldsMessage = "Empty field(s): username, name, email and password required"
	loginFieldsMessage    = "Empty field(s): username and password required"
)

type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) error
	Login(ctx context.Context, input service.LoginInput) (string, error)
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (string, error)
	RevokeRefreshToken(ctx context.Context, requester authdomain.Claims, refreshToken string) error
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshTokenResponse struct {
	RefreshToken string `json:"refresh_token"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

type Handler struct {
	auth    AuthService
	errs    *commonhttp.ErrorHandler
	timeout time.Duration
}

func NewHandler(auth AuthService, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		auth:    auth,
		errs:    commonhttp.NewErrorHandler(log),
		timeout: timeout,
	}
}

// RegisterRoutes mounts the account and token routes. requireAuth guards token revocation.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	withTimeout := commonhttp.WithTimeout(h.timeout)
	mux.HandleFunc("POST /register", withTimeout(h.register))
	mux.HandleFunc("POST /login", withTimeout(h.login))
	mux.HandleFunc("GET /token", withTimeout(h.exchange))
	mux.Handle("DELETE /token", requireAuth(withTimeout(h.revoke)))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	if err := commonhttp.RequiredFields(req, registerFieldsMessage); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteMessage(w, http.StatusCreated, "Account created")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	if err := commonhttp.RequiredFields(req, loginFieldsMessage); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	token, err := h.auth.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, refreshTokenResponse{RefreshToken: token})
}

// exchange accepts the refresh token in the JSON body or, since GET bodies are
// often dropped by clients, in the refresh_token query parameter.
func (h *Handler) exchange(w http.ResponseWriter, r *http.Request) {
	token, err := refreshTokenFrom(r)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	access, err := h.auth.ExchangeRefreshToken(r.Context(), token)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, accessTokenResponse{AccessToken: access})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errs.HandleError(w, r, commonerrors.ErrAuthRequired)
		return
	}

	token, err := refreshTokenFrom(r)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	requester := authdomain.Claims{UserID: claims.UserID, Username: claims.Username}
	if err := h.auth.RevokeRefreshToken(r.Context(), requester, token); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteMessage(w, http.StatusOK, "Token deleted")
}

func refreshTokenFrom(r *http.Request) (string, error) {
	var req refreshTokenRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		return "", err
	}
	if req.RefreshToken == "" {
		req.RefreshToken = r.URL.Query().Get("refresh_token")
	}
	return req.RefreshToken, nil
}
