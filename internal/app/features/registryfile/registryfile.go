// Package registryfile serves the published registry document.
//
// Endpoints:
//   - GET|HEAD /registry.json
//   - GET|HEAD /CONTENT/registry.json
//
// Responses carry a strong ETag and Cache-Control: no-store so clients
// always revalidate; If-None-Match short-circuits to 304.
package registryfile

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratacatalog/internal/app/features/errors"
	"github.com/dalemusser/stratacatalog/internal/app/system/etag"
	"github.com/dalemusser/stratacatalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacatalog/internal/app/system/registrybackend"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DocumentSource returns the current registry document.
// *publisher.Publisher implements it.
type DocumentSource interface {
	Document(ctx context.Context) (*models.RegistryDocument, error)
}

// Handler serves the registry file.
type Handler struct {
	docs   DocumentSource
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a registry file Handler.
func NewHandler(docs DocumentSource, logger *zap.Logger) *Handler {
	return &Handler{docs: docs, errLog: errorsfeature.NewErrorLogger(logger), logger: logger}
}

// MountRoutes registers the registry file paths on r.
func MountRoutes(r chi.Router, h *Handler) {
	for _, p := range []string{"/registry.json", "/CONTENT/registry.json"} {
		r.Get(p, h.Serve)
		r.Head(p, h.Serve)
	}
}

// Serve writes the registry document.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Document(r.Context())
	if errors.Is(err, registrybackend.ErrNotFound) {
		w.Header().Set("Cache-Control", "no-store")
		jsonutil.NotFound(w, "registry not published")
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to read registry document", err)
		jsonutil.Error(w, http.StatusBadGateway, "registry unavailable")
		return
	}

	hdr := w.Header()
	hdr.Set("Cache-Control", "no-store")
	if doc.ETag != "" {
		hdr.Set("ETag", etag.Quote(doc.ETag))
	}
	if !doc.UpdatedAt.IsZero() {
		hdr.Set("Last-Modified", doc.UpdatedAt.UTC().Format(http.TimeFormat))
	}

	if inm := r.Header.Get("If-None-Match"); inm != "" && etag.Match(inm, doc.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	hdr.Set("Content-Type", "application/json; charset=utf-8")
	hdr.Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(doc.Body); err != nil {
		h.logger.Debug("registry write interrupted", zap.Error(err))
	}
}
