// Package commit provides the admin registry commit endpoint.
//
// Endpoints:
//   - POST /api/admin/commit - Replace the published registry (admin token)
package commit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/stratacatalog/internal/app/features/errors"
	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacatalog/internal/app/system/network"
	"github.com/dalemusser/stratacatalog/internal/app/system/publisher"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultMaxBytes caps the request body when no limit is configured.
const DefaultMaxBytes = 16 << 20

// ConflictCode is the error code clients match to detect a stale change-token.
const ConflictCode = "etag_mismatch"

// Committer stores a registry. *publisher.Publisher implements it.
type Committer interface {
	Commit(ctx context.Context, in publisher.CommitInput) (*models.RegistryDocument, error)
}

// Handler handles commit requests.
type Handler struct {
	committer Committer
	maxBytes  int64
	errLog    *errorsfeature.ErrorLogger
	logger    *zap.Logger
}

// NewHandler creates a commit Handler. maxBytes <= 0 uses DefaultMaxBytes.
func NewHandler(committer Committer, maxBytes int64, logger *zap.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Handler{
		committer: committer,
		maxBytes:  maxBytes,
		errLog:    errorsfeature.NewErrorLogger(logger),
		logger:    logger,
	}
}

type commitRequest struct {
	JSON         json.RawMessage `json:"json"`
	ExpectedETag string          `json:"expectedEtag"`
	Retried      bool            `json:"retried"`
}

type commitResponse struct {
	OK        bool   `json:"ok"`
	ETag      string `json:"etag"`
	VersionID string `json:"versionId"`
}

// Commit handles POST /api/admin/commit.
//
// Request body:
//
//	{"json": { ...registry... }, "expectedEtag": "abc"}
//
// The registry is normalized and validated before it is stored. Text is kept as sent.
// Responses: 200 {ok, etag, versionId}; 400 with issues; 409
// {"error":"etag_mismatch"} when expectedEtag is stale.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	var in commitRequest
	if err := jsonutil.DecodeLimited(r, &in, h.maxBytes); err != nil {
		if errors.Is(err, jsonutil.ErrBodyTooLarge) {
			jsonutil.Error(w, http.StatusRequestEntityTooLarge, "registry too large")
			return
		}
		jsonutil.ErrorDetail(w, http.StatusBadRequest, "invalid JSON payload", err.Error())
		return
	}
	if len(in.JSON) == 0 || string(in.JSON) == "null" {
		jsonutil.BadRequest(w, "missing json")
		return
	}

	reg, err := registry.Parse(in.JSON)
	if err != nil {
		h.writeInvalid(w, err)
		return
	}

	doc, err := h.committer.Commit(r.Context(), publisher.CommitInput{
		Registry:     reg,
		ExpectedETag: in.ExpectedETag,
		Retried:      in.Retried,
		RemoteAddr:   network.ClientIP(r),
	})
	var conflict *publisher.ConflictError
	switch {
	case err == nil:
	case errors.As(err, &conflict):
		jsonutil.ErrorDetail(w, http.StatusConflict, ConflictCode, conflict.Error())
		return
	case errors.Is(err, registry.ErrDraftInvalid), errors.Is(err, registry.ErrMalformedDocument):
		h.writeInvalid(w, err)
		return
	default:
		h.errLog.Log(r, "registry commit failed", err)
		jsonutil.InternalError(w, "commit failed")
		return
	}

	jsonutil.OK(w, commitResponse{OK: true, ETag: doc.ETag, VersionID: doc.VersionID})
}

func (h *Handler) writeInvalid(w http.ResponseWriter, err error) {
	var ve *registry.ValidationError
	if errors.As(err, &ve) {
		jsonutil.ValidationIssues(w, ve.Issues)
		return
	}
	jsonutil.ErrorDetail(w, http.StatusBadRequest, "invalid registry", err.Error())
}
