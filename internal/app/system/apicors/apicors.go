// Package apicors provides CORS middleware for the registry and admin API.
//
// Admin calls authenticate with the x-admin-token header rather than
// cookies, so credentials are never allowed and any origin may be accepted.
package apicors

import (
	"net/http"
	"strings"
)

const (
	allowMethods  = "GET, HEAD, POST, PUT, OPTIONS"
	allowHeaders  = "Authorization, Content-Type, Accept, If-None-Match, x-admin-token"
	exposeHeaders = "ETag, Cache-Control"
)

// Middleware allows any origin.
//
//	r.Group(func(r chi.Router) {
//	    r.Use(apicors.Middleware())
//	    r.Use(auth.AdminToken(appCfg.AdminToken, appCfg.AdminTokenHash, logger))
//	    r.Mount("/api/admin", adminRoutes)
//	})
func Middleware() func(http.Handler) http.Handler {
	return MiddlewareWithOrigins()
}

// MiddlewareWithOrigins only allows the given origins. With no origins (or
// "*") every origin is allowed.
func MiddlewareWithOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	anyOrigin := len(allowedOrigins) == 0
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			anyOrigin = true
		}
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if anyOrigin {
				h.Set("Access-Control-Allow-Origin", "*")
			} else if origin := r.Header.Get("Origin"); origin != "" {
				// Origins not in the set get no CORS headers; the browser blocks them.
				if _, ok := originSet[origin]; ok {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
