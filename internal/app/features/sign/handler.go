// Package sign provides the admin upload signing endpoint.
//
// Endpoints:
//   - POST /api/admin/sign - Issue an upload destination (admin token)
package sign

import (
	"errors"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacatalog/internal/app/features/errors"
	"github.com/dalemusser/stratacatalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacatalog/internal/app/system/metrics"
	"github.com/dalemusser/stratacatalog/internal/app/system/signer"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxRequestBytes = 16 << 10

// DefaultContentType is signed when the request names none.
const DefaultContentType = "application/octet-stream"

// Handler handles signing requests.
type Handler struct {
	signer  signer.Signer
	metrics *metrics.Metrics
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

// NewHandler creates a sign Handler.
func NewHandler(s signer.Signer, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{signer: s, metrics: m, errLog: errorsfeature.NewErrorLogger(logger), logger: logger}
}

// MountRoutes registers the sign endpoint on an admin-protected router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/sign", h.Sign)
}

// Sign handles POST /api/admin/sign.
//
// Request body: {"path": "CONTENT/...", "contentType": "image/png"}
// Response: {"url": "...", "headers": {...}, "key": "CONTENT/..."}
func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Path        string `json:"path"`
		ContentType string `json:"contentType"`
	}
	if err := jsonutil.DecodeLimited(r, &in, maxRequestBytes); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	ct := strings.TrimSpace(in.ContentType)
	if ct == "" {
		ct = DefaultContentType
	}

	signed, err := h.signer.Sign(r.Context(), in.Path, ct)
	if errors.Is(err, signer.ErrInvalidPath) {
		jsonutil.ErrorDetail(w, http.StatusBadRequest, "invalid path", err.Error())
		return
	}
	if err != nil {
		h.errLog.LogWithFields(r, "failed to sign upload", err, zap.String("path", in.Path))
		jsonutil.InternalError(w, "sign failed")
		return
	}
	h.metrics.UploadSigned(h.signer.Name())

	h.logger.Debug("upload signed",
		zap.String("signer", h.signer.Name()),
		zap.String("key", signed.Key),
		zap.String("content_type", ct))
	jsonutil.OK(w, signed)
}
