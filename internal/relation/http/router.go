package http

import (
	"context"
	"net/http"
	"time"

	commonerrors "github.com/jakobkordez/wmm-reborn/internal/common/errors"
	commonhttp "github.com/jakobkordez/wmm-reborn/internal/common/http"
	"github.com/jakobkordez/wmm-reborn/internal/common/jwtverify"
	"github.com/jakobkordez/wmm-reborn/internal/common/logger"
	"github.com/jakobkordez/wmm-reborn/internal/relation/domain"
)

type Relations interface {
	Get(ctx context.Context, self, other string) (domain.Relation, error)
}

type relationResponse struct {
	Amount int64 `json:"amount"`
}

type Handler struct {
	relations Relations
	errs      *commonhttp.ErrorHandler
	timeout   time.Duration
}

func NewHandler(relations Relations, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		relations: relations,
		errs:      commonhttp.NewErrorHandler(log),
		timeout:   timeout,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("GET /relation/{username}", requireAuth(commonhttp.WithTimeout(h.timeout)(h.relation)))
}

func (h *Handler) relation(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errs.HandleError(w, r, commonerrors.ErrAuthRequired)
		return
	}

	rel, err := h.relations.Get(r.Context(), claims.Username, r.PathValue("username"))
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, relationResponse{Amount: rel.Amount})
}
