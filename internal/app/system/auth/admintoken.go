package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacatalog/internal/app/system/network"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminTokenHeader carries the admin token.
const AdminTokenHeader = "x-admin-token"

// AdminToken returns middleware that requires a valid admin token.
//
// The token is read from the x-admin-token header, or from
// "Authorization: Bearer <token>" when that header is absent. It is
// checked against token (constant-time compare) and against hash (a
// bcrypt hash); either may be empty, and a match on either is accepted.
// When neither is configured every request is rejected.
func AdminToken(token, hash string, logger *zap.Logger) func(http.Handler) http.Handler {
	if token == "" && hash == "" {
		logger.Warn("admin token not configured - all admin requests will be rejected")
	}
	check := NewTokenChecker(token, hash)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := TokenFromRequest(r)
			if provided == "" {
				logger.Debug("admin request rejected: missing token",
					zap.String("path", r.URL.Path),
				)
				jsonutil.Unauthorized(w, "unauthorized")
				return
			}
			if !check(provided) {
				logger.Warn("admin request rejected: invalid token",
					zap.String("path", r.URL.Path),
					zap.String("ip", network.ClientIP(r)),
				)
				jsonutil.Unauthorized(w, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest extracts the admin token from a request.
func TokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(AdminTokenHeader)); t != "" {
		return t
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// NewTokenChecker returns a func reporting whether a provided token is valid.
func NewTokenChecker(token, hash string) func(string) bool {
	return func(provided string) bool {
		if provided == "" {
			return false
		}
		if token != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1 {
			return true
		}
		if hash != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(provided)) == nil {
			return true
		}
		return false
	}
}
