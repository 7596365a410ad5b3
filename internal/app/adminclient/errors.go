package adminclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/app/registry"
)

var (
	// ErrUnauthorized means the admin token was rejected (401/403) or is missing.
	ErrUnauthorized = errors.New("admin session invalid")
	// ErrConflict means the commit's expected change-token did not match.
	ErrConflict = errors.New("registry change-token mismatch")
)

// ConflictCode is the error code the commit endpoint uses for a stale change-token.
const ConflictCode = "etag_mismatch"

// HTTPError is a non-2xx response from the signer or the upload target.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	if b := strings.TrimSpace(e.Body); b != "" {
		msg += " " + b
	}
	return msg
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && unauthorizedStatus(e.StatusCode)
}

// CommitError is a failed commit: a transport error, a non-2xx response,
// or a response carrying an error code. Issues lists the server's
// validation findings when it rejected the registry.
type CommitError struct {
	StatusCode int
	Code       string
	Detail     string
	Issues     []registry.Issue
	Retried    bool
	Err        error
}

func (e *CommitError) Error() string {
	var b strings.Builder
	b.WriteString("commit registry")
	if e.Retried {
		b.WriteString(" (after retry)")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	switch len(e.Issues) {
	case 0:
	case 1:
		fmt.Fprintf(&b, ": %s: %s", e.Issues[0].Path, e.Issues[0].Message)
	default:
		fmt.Fprintf(&b, ": %d issues", len(e.Issues))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *CommitError) Unwrap() error { return e.Err }

func (e *CommitError) Is(target error) bool {
	switch target {
	case ErrConflict:
		return e.Conflict()
	case ErrUnauthorized:
		return unauthorizedStatus(e.StatusCode)
	}
	return false
}

// Conflict reports whether the endpoint rejected a stale change-token.
func (e *CommitError) Conflict() bool {
	return e.StatusCode == http.StatusConflict || strings.EqualFold(e.Code, ConflictCode)
}

// UploadError is a failed asset upload. The draft field is left unchanged.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func unauthorizedStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
