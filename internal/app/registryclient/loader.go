// Package registryclient fetches the published registry and holds the
// loaded state for readers.
package registryclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/app/system/etag"
	"github.com/dalemusser/stratacatalog/internal/app/system/metrics"
	"github.com/dalemusser/stratacatalog/internal/app/system/timeouts"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.uber.org/zap"
)

// LocalPaths are the fallback registry locations tried, in order, when no
// remote URL is configured.
var LocalPaths = []string{"/registry.json", "/CONTENT/registry.json"}

// DefaultMaxBytes caps the size of a fetched registry document.
const DefaultMaxBytes = 16 << 20

// ErrSourceUnavailable is matched by every error Load returns when no
// candidate produced a registry.
var ErrSourceUnavailable = errors.New("registry source unavailable")

// LoadError reports that every candidate failed. It unwraps to both
// ErrSourceUnavailable and the last candidate's error.
type LoadError struct {
	Candidates []string
	Last       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v: tried %s: %v", ErrSourceUnavailable, strings.Join(e.Candidates, ", "), e.Last)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Last}
}

// StatusError is a non-2xx response from a candidate.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Result is one successful load.
type Result struct {
	Registry    *models.Registry
	ChangeToken string // "" when the source exposed none
	SourceUsed  string
	Remote      bool // true when SourceUsed is the configured remote URL
	Body        []byte
}

// Config configures a Loader.
type Config struct {
	// RemoteURL is the authoritative registry URL. When it is a well-formed
	// http(s) URL it is the only candidate.
	RemoteURL string
	// BaseURL is the origin the local fallback paths are resolved against.
	BaseURL    string
	HTTPClient *http.Client
	MaxBytes   int64
	Metrics    *metrics.Metrics
}

// Loader resolves the registry source, fetches and normalizes it, and
// keeps the last successful result.
type Loader struct {
	remoteURL string
	baseURL   string
	client    *http.Client
	maxBytes  int64
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu    sync.Mutex
	cache *Result
}

// NewLoader creates a Loader.
func NewLoader(cfg Config, logger *zap.Logger) *Loader {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	remote := strings.TrimSpace(cfg.RemoteURL)
	if remote != "" && !registry.IsHTTPURL(remote) {
		logger.Warn("ignoring registry remote URL that is not http(s)",
			zap.String("remote_url", remote))
		remote = ""
	}
	return &Loader{
		remoteURL: remote,
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:    client,
		maxBytes:  maxBytes,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// Candidates returns the ordered list of URLs Load will try.
func (l *Loader) Candidates() []string {
	if l.remoteURL != "" {
		return []string{l.remoteURL}
	}
	out := make([]string, len(LocalPaths))
	for i, p := range LocalPaths {
		out[i] = l.baseURL + p
	}
	return out
}

// IsRemote reports whether a remote source is configured.
func (l *Loader) IsRemote() bool {
	return l.remoteURL != ""
}

// Load tries each candidate in order and returns the first registry that
// fetches and normalizes cleanly. Candidates are never tried in parallel
// and a failed candidate is not retried.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	candidates := l.Candidates()
	var last error
	for _, u := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := l.loadOne(ctx, u)
		if err == nil {
			res.Remote = l.remoteURL != ""
			l.mu.Lock()
			l.cache = res
			l.mu.Unlock()
			l.metrics.Load(metrics.OutcomeOK)
			l.metrics.SetItems(res.Registry.ItemCount())
			l.logger.Debug("registry loaded",
				zap.String("source", u),
				zap.String("change_token", res.ChangeToken),
				zap.Int("brands", res.Registry.Brands.Len()))
			return res, nil
		}
		last = err
		l.metrics.CandidateFailed(failureReason(err))
		l.logger.Warn("registry candidate failed",
			zap.String("source", u),
			zap.Error(err))
	}

	if errors.Is(last, registry.ErrMalformedDocument) {
		l.metrics.Load(metrics.OutcomeMalformed)
	} else {
		l.metrics.Load(metrics.OutcomeError)
	}
	return nil, &LoadError{Candidates: candidates, Last: last}
}

func (l *Loader) loadOne(ctx context.Context, u string) (*Result, error) {
	token := l.probe(ctx, u)

	body, err := l.fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u, err)
	}
	return &Result{Registry: reg, ChangeToken: token, SourceUsed: u, Body: body}, nil
}

// probe asks for the change-token with a HEAD request. Any failure just
// means no token is available.
func (l *Loader) probe(ctx context.Context, u string) string {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Probe(), l.logger, "registry probe")
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Debug("registry probe failed", zap.String("source", u), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ""
	}
	return strings.ReplaceAll(etag.Normalize(resp.Header.Get("ETag")), `"`, "")
}

func (l *Loader) fetch(ctx context.Context, u string) ([]byte, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Request(), l.logger, "registry fetch")
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	if int64(len(body)) > l.maxBytes {
		return nil, fmt.Errorf("%s: registry larger than %d bytes", u, l.maxBytes)
	}
	return body, nil
}

// Cached returns the last successful result, or nil.
func (l *Loader) Cached() *Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache
}

// Invalidate drops the cached result.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cache = nil
	l.mu.Unlock()
}

func failureReason(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, registry.ErrMalformedDocument):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}
