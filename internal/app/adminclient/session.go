package adminclient

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Ping target used to check a token: signing it proves the token is accepted.
const (
	PingPath        = "CONTENT/.ping.txt"
	PingContentType = "text/plain"
)

// Session holds the admin token. It subscribes to the client's
// unauthorized signal once, at construction, and clears the token when
// the signal fires.
type Session struct {
	client *Client
	logger *zap.Logger

	mu       sync.RWMutex
	token    string
	onLogout []func()
}

// NewSession creates a logged-out session bound to client.
func NewSession(client *Client, logger *zap.Logger) *Session {
	s := &Session{client: client, logger: logger}
	client.SetUnauthorizedHandler(s.invalidate)
	return s
}

// OnLogout adds fn to the observers run, in registration order, after the
// token is cleared for any reason.
func (s *Session) OnLogout(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// Login checks token against the signer and keeps it on success.
func (s *Session) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrUnauthorized
	}
	if _, err := s.client.Sign(ctx, token, PingPath, PingContentType); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.logger.Info("admin session started")
	return nil
}

// Token returns the current token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Logout clears the token.
func (s *Session) Logout() {
	s.clear("logout")
}

func (s *Session) invalidate() {
	s.clear("token rejected")
}

func (s *Session) clear(reason string) {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	observers := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	if had {
		s.logger.Info("admin session ended", zap.String("reason", reason))
	}
	for _, fn := range observers {
		fn()
	}
}
