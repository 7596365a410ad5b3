// Package revisions lists recent registry commits for operators.
//
// Endpoints:
//   - GET /api/admin/revisions?limit=N&page=P (admin token)
package revisions

import (
	"context"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratacatalog/internal/app/features/errors"
	revisionstore "github.com/dalemusser/stratacatalog/internal/app/store/revisions"
	"github.com/dalemusser/stratacatalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxLimit caps the limit query parameter.
const MaxLimit = 200

// Lister returns recent revisions. *revisionstore.Store implements it.
type Lister interface {
	List(ctx context.Context, limit, page int64) ([]models.Revision, error)
}

// Handler serves the revision list.
type Handler struct {
	revisions Lister
	errLog    *errorsfeature.ErrorLogger
}

// NewHandler creates a revisions Handler.
func NewHandler(revisions Lister, logger *zap.Logger) *Handler {
	return &Handler{revisions: revisions, errLog: errorsfeature.NewErrorLogger(logger)}
}

// MountRoutes registers the list endpoint on an admin-protected router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/revisions", h.List)
}

// List handles GET /api/admin/revisions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := positiveParam(r, "limit", revisionstore.DefaultLimit)
	if !ok {
		jsonutil.BadRequest(w, "limit must be a positive integer")
		return
	}
	page, ok := positiveParam(r, "page", 1)
	if !ok {
		jsonutil.BadRequest(w, "page must be a positive integer")
		return
	}
	limit = min(limit, MaxLimit)

	revs, err := h.revisions.List(r.Context(), limit, page)
	if err != nil {
		h.errLog.Log(r, "failed to list revisions", err)
		jsonutil.InternalError(w, "failed to list revisions")
		return
	}
	jsonutil.OK(w, map[string]any{"revisions": revs, "page": page, "limit": limit})
}

func positiveParam(r *http.Request, name string, def int64) (int64, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
