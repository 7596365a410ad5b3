package adminclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/app/system/etag"
	"github.com/dalemusser/stratacatalog/internal/app/system/metrics"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultContentType is used for uploads that declare none.
const DefaultContentType = "application/octet-stream"

// RegistryState is the part of the registry store the pipeline needs.
// *registryclient.Store implements it.
type RegistryState interface {
	Refresh(ctx context.Context) error
	ChangeToken() string
	SetChangeToken(token string)
}

// CommitResult is a successful save.
type CommitResult struct {
	ETag      string
	VersionID string
	Retried   bool
}

// File is an asset to upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
	Size        int64 // -1 when unknown
}

// Pipeline validates, uploads and commits registry edits.
type Pipeline struct {
	client  *Client
	session *Session
	state   RegistryState
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(client *Client, session *Session, state RegistryState, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{client: client, session: session, state: state, metrics: m, logger: logger}
}

// Save validates draft and commits it.
//
// Validation runs on a deep copy before any network call and reports all
// issues. The expected change-token is sent only when isRemote is true.
// On a conflict the store is refreshed and the same validated copy is
// resubmitted once with the fresh token; a second conflict is terminal.
// After a successful commit the store is refreshed.
func (p *Pipeline) Save(ctx context.Context, draft *models.Registry, changeToken string, isRemote bool) (*CommitResult, error) {
	clone := draft.Clone()
	if err := registry.ValidateDraft(clone); err != nil {
		p.metrics.Commit(metrics.OutcomeInvalid)
		return nil, err
	}

	token := p.session.Token()
	if token == "" {
		return nil, ErrUnauthorized
	}

	expected := ""
	if isRemote {
		expected = changeToken
	}

	resp, err := p.client.Commit(ctx, token, CommitRequest{JSON: clone, ExpectedETag: expected})
	retried := false
	if errors.Is(err, ErrConflict) {
		p.metrics.Commit(metrics.OutcomeConflict)
		p.metrics.CommitRetried()
		retried = true

		if rerr := p.state.Refresh(ctx); rerr != nil {
			return nil, &CommitError{Retried: true, Err: fmt.Errorf("refresh after conflict: %w", rerr)}
		}
		fresh := ""
		if isRemote {
			fresh = p.state.ChangeToken()
		}
		p.logger.Warn("registry commit conflict, resubmitting with refreshed change-token",
			zap.String("stale_token", expected),
			zap.String("fresh_token", fresh))

		resp, err = p.client.Commit(ctx, token, CommitRequest{JSON: clone, ExpectedETag: fresh, Retried: true})
		var ce *CommitError
		if errors.As(err, &ce) {
			ce.Retried = true
		}
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			p.metrics.Commit(metrics.OutcomeConflict)
		} else {
			p.metrics.Commit(metrics.OutcomeError)
		}
		return nil, err
	}
	p.metrics.Commit(metrics.OutcomeOK)

	if rerr := p.state.Refresh(ctx); rerr != nil {
		p.logger.Warn("registry refresh after commit failed", zap.Error(rerr))
	}
	newToken := etag.Normalize(resp.ETag)
	if p.state.ChangeToken() == "" {
		p.state.SetChangeToken(newToken)
	}

	p.logger.Info("registry committed",
		zap.String("etag", newToken),
		zap.String("version_id", resp.VersionID),
		zap.Bool("retried", retried))

	return &CommitResult{ETag: newToken, VersionID: resp.VersionID, Retried: retried}, nil
}

// Upload signs a destination for f under the brand's upload folder, PUTs
// the bytes with exactly the signer's headers, and then points field at
// the stored relative path. On failure the draft is left unchanged.
func (p *Pipeline) Upload(ctx context.Context, d *Draft, brandKey string, field Field, f File) (string, error) {
	path := UploadPath(brandKey, f.Name)
	ct := strings.TrimSpace(f.ContentType)
	if ct == "" {
		ct = DefaultContentType
	}

	token := p.session.Token()
	if token == "" {
		return "", &UploadError{Path: path, Err: ErrUnauthorized}
	}

	signed, err := p.client.Sign(ctx, token, path, ct)
	if err != nil {
		return "", &UploadError{Path: path, Err: err}
	}

	headers := signed.Headers
	if len(headers) == 0 {
		headers = map[string]string{"Content-Type": ct}
	}
	if err := p.client.Put(ctx, signed.URL, headers, f.Body, f.Size); err != nil {
		return "", &UploadError{Path: path, Err: err}
	}

	if err := d.Set(brandKey, field, path); err != nil {
		return "", &UploadError{Path: path, Err: err}
	}

	p.logger.Info("asset uploaded",
		zap.String("brand", brandKey),
		zap.String("field", field.String()),
		zap.String("path", path))
	return path, nil
}
