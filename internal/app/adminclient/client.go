// Package adminclient talks to the signing and commit endpoints and runs
// the admin save pipeline over an editable registry draft.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/app/system/timeouts"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.uber.org/zap"
)

// TokenHeader carries the admin token on signing and commit requests.
const TokenHeader = "x-admin-token"

// SignResponse is a signed upload destination.
type SignResponse struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Key     string            `json:"key,omitempty"`
}

// CommitRequest is the commit endpoint's request body.
type CommitRequest struct {
	JSON         *models.Registry `json:"json"`
	ExpectedETag string           `json:"expectedEtag,omitempty"`
	Retried      bool             `json:"retried,omitempty"`
}

// CommitResponse is the commit endpoint's response body.
type CommitResponse struct {
	OK        bool   `json:"ok,omitempty"`
	ETag      string `json:"etag,omitempty"`
	VersionID string `json:"versionId,omitempty"`
	Error     string           `json:"error,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	Issues    []registry.Issue `json:"issues,omitempty"`
}

// Config configures a Client.
type Config struct {
	SignURL    string
	CommitURL  string
	HTTPClient *http.Client
}

// Client calls the signing, upload and commit endpoints.
//
// Any 401/403 from signing or commit invokes the unauthorized handler
// before the error is returned.
type Client struct {
	signURL   string
	commitURL string
	http      *http.Client
	logger    *zap.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

// New creates a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{
		signURL:   cfg.SignURL,
		commitURL: cfg.CommitURL,
		http:      hc,
		logger:    logger,
	}
}

// SetUnauthorizedHandler registers fn as the receiver of "admin session
// invalid" signals. A later call replaces the earlier handler.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) unauthorized(op string, status int) {
	c.logger.Warn("admin token rejected",
		zap.String("op", op),
		zap.Int("status", status))
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Sign requests a signed upload destination for path.
func (c *Client) Sign(ctx context.Context, token, path, contentType string) (*SignResponse, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Request(), c.logger, "sign upload")
	defer cancel()

	payload, err := json.Marshal(map[string]string{"path": path, "contentType": contentType})
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, c.signURL, token, payload)
	if err != nil {
		return nil, fmt.Errorf("sign upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if unauthorizedStatus(resp.StatusCode) {
			c.unauthorized("sign", resp.StatusCode)
		}
		return nil, &HTTPError{Op: "sign upload", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out SignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("sign upload: decode response: %w", err)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("sign upload: response has no url")
	}
	return &out, nil
}

// Put uploads body to a signed URL with exactly the given headers.
func (c *Client) Put(ctx context.Context, url string, headers map[string]string, body io.Reader, size int64) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Upload(), c.logger, "upload put")
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload put: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{Op: "upload put", StatusCode: resp.StatusCode, Body: string(b)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Commit submits a registry. Conflicts are returned as a *CommitError that
// matches ErrConflict.
func (c *Client) Commit(ctx context.Context, token string, req CommitRequest) (*CommitResponse, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Commit(), c.logger, "commit registry")
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &CommitError{Err: err}
	}
	resp, err := c.post(ctx, c.commitURL, token, payload)
	if err != nil {
		return nil, &CommitError{Err: err}
	}
	defer resp.Body.Close()

	// A body that is not JSON reads as an empty response.
	var out CommitResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || out.Error != "" {
		if unauthorizedStatus(resp.StatusCode) {
			c.unauthorized("commit", resp.StatusCode)
		}
		return nil, &CommitError{StatusCode: resp.StatusCode, Code: out.Error, Detail: out.Detail, Issues: out.Issues}
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, url, token string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, token)
	return c.http.Do(req)
}
