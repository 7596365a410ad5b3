package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds carried by ValidationError.
var (
	// ErrMalformedDocument means the JSON parsed but does not have the registry shape.
	ErrMalformedDocument = errors.New("malformed registry document")
	// ErrMalformedContent means an item content file does not have the expected shape.
	ErrMalformedContent = errors.New("malformed item content")
	// ErrDraftInvalid means an edited draft failed pre-flight checks.
	ErrDraftInvalid = errors.New("invalid registry draft")
)

// Issue is one problem found at a dotted path such as "brands.ACME.items.2.slug".
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports every issue found in one pass.
type ValidationError struct {
	Kind   error
	Issues []Issue
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	switch len(e.Issues) {
	case 0:
	case 1:
		fmt.Fprintf(&b, ": %s: %s", e.Issues[0].Path, e.Issues[0].Message)
	default:
		fmt.Fprintf(&b, ": %d issues", len(e.Issues))
		for _, is := range e.Issues {
			fmt.Fprintf(&b, "; %s: %s", is.Path, is.Message)
		}
	}
	return b.String()
}

// Unwrap exposes the kind so callers can use errors.Is.
func (e *ValidationError) Unwrap() error { return e.Kind }

// issues accumulates problems while walking a document.
type issues []Issue

func (is *issues) add(path, format string, args ...any) {
	*is = append(*is, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (is issues) err(kind error) error {
	if len(is) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, Issues: is}
}

func join(parts ...string) string {
	return strings.Join(parts, ".")
}
