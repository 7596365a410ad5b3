package signer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// UploadsPath is where the local upload handler is mounted.
const UploadsPath = "/api/uploads/"

const tokenName = "upload"

// ErrBadToken is returned for tokens that fail verification or have expired.
var ErrBadToken = errors.New("invalid or expired upload token")

// Claim is what a local upload token authorizes.
type Claim struct {
	Path        string `json:"p"`
	ContentType string `json:"ct"`
}

// Local signs upload tokens that this server's upload handler accepts.
// Tokens are HMAC-signed and expire after the configured duration.
type Local struct {
	baseURL string
	codec   *securecookie.SecureCookie
}

// NewLocal creates a Local signer. key must be non-empty.
func NewLocal(baseURL string, key []byte, expiry time.Duration) (*Local, error) {
	if len(key) == 0 {
		return nil, errors.New("upload token key is required")
	}
	codec := securecookie.New(key, nil)
	codec.MaxAge(int(expiry / time.Second))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Local{baseURL: strings.TrimRight(baseURL, "/"), codec: codec}, nil
}

func (l *Local) Name() string { return "local" }

func (l *Local) Sign(ctx context.Context, p, contentType string) (*Signed, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	token, err := l.codec.Encode(tokenName, Claim{Path: clean, ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("sign upload token: %w", err)
	}
	return &Signed{
		URL:     l.baseURL + UploadsPath + url.PathEscape(token),
		Headers: map[string]string{"Content-Type": contentType},
		Key:     clean,
	}, nil
}

// Verify decodes token and returns its claim.
func (l *Local) Verify(token string) (*Claim, error) {
	var c Claim
	if err := l.codec.Decode(tokenName, token, &c); err != nil {
		return nil, ErrBadToken
	}
	return &c, nil
}
