// Package signer issues short-lived upload destinations for admin assets.
package signer

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ContentPrefix is the only tree uploads may target.
const ContentPrefix = "CONTENT/"

// ErrInvalidPath is returned for paths outside ContentPrefix or containing "..".
var ErrInvalidPath = errors.New("upload path must stay under " + ContentPrefix)

// Signed is an upload destination. The client PUTs the file to URL with
// exactly Headers.
type Signed struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Key     string            `json:"key,omitempty"`
}

// Signer issues upload destinations.
type Signer interface {
	Name() string
	Sign(ctx context.Context, path, contentType string) (*Signed, error)
}

// CleanPath normalizes an upload path and checks it stays under ContentPrefix.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
	if p == "" || strings.Contains(p, "..") {
		return "", ErrInvalidPath
	}
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if !strings.HasPrefix(clean, ContentPrefix) || clean == strings.TrimSuffix(ContentPrefix, "/") {
		return "", ErrInvalidPath
	}
	return clean, nil
}
