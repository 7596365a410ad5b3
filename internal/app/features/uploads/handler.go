// Package uploads receives asset uploads signed by the local signer.
//
// Endpoints:
//   - PUT /api/uploads/{token} - Store the request body at the signed path
//
// The token itself is the credential; no admin header is required.
package uploads

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratacatalog/internal/app/features/errors"
	"github.com/dalemusser/stratacatalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacatalog/internal/app/system/metrics"
	"github.com/dalemusser/stratacatalog/internal/app/system/signer"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes = 25 << 20

// Verifier decodes upload tokens. *signer.Local implements it.
type Verifier interface {
	Verify(token string) (*signer.Claim, error)
}

// ObjectWriter stores uploaded bytes. storage.Store implements it.
type ObjectWriter interface {
	Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error
}

// Handler handles signed uploads.
type Handler struct {
	verifier Verifier
	objects  ObjectWriter
	maxBytes int64
	metrics  *metrics.Metrics
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates an uploads Handler. maxBytes <= 0 uses DefaultMaxBytes.
func NewHandler(v Verifier, objects ObjectWriter, maxBytes int64, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Handler{
		verifier: v,
		objects:  objects,
		maxBytes: maxBytes,
		metrics:  m,
		errLog:   errorsfeature.NewErrorLogger(logger),
		logger:   logger,
	}
}

// Routes returns a router serving PUT /{token}.
// Mount it at signer.UploadsPath without the trailing slash.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Put("/{token}", h.Put)
	return r
}

// Put handles PUT /api/uploads/{token}.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	claim, err := h.verifier.Verify(chi.URLParam(r, "token"))
	if err != nil {
		jsonutil.Error(w, http.StatusForbidden, "invalid or expired upload token")
		return
	}

	if !sameMediaType(r.Header.Get("Content-Type"), claim.ContentType) {
		jsonutil.ErrorDetail(w, http.StatusBadRequest, "content type mismatch",
			"signed for "+claim.ContentType)
		return
	}
	if r.ContentLength > h.maxBytes {
		jsonutil.Error(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	body := &countingReader{r: http.MaxBytesReader(w, r.Body, h.maxBytes)}
	err = h.objects.Put(r.Context(), claim.Path, body, &storage.PutOptions{ContentType: claim.ContentType})
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonutil.Error(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	if err != nil {
		h.errLog.LogWithFields(r, "failed to store upload", err, zap.String("path", claim.Path))
		jsonutil.InternalError(w, "upload failed")
		return
	}
	h.metrics.UploadReceived(body.n)

	h.logger.Info("upload stored",
		zap.String("path", claim.Path),
		zap.String("content_type", claim.ContentType),
		zap.Int64("bytes", body.n))
	jsonutil.OK(w, map[string]any{"ok": true, "key": claim.Path})
}

// sameMediaType compares media types, ignoring parameters and case.
func sameMediaType(got, want string) bool {
	g, _, err := mime.ParseMediaType(got)
	if err != nil {
		g = strings.TrimSpace(got)
	}
	wt, _, err := mime.ParseMediaType(want)
	if err != nil {
		wt = strings.TrimSpace(want)
	}
	return strings.EqualFold(g, wt)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
