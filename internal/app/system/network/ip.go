// Package network resolves the caller address recorded on admin actions.
package network

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address of the caller behind any reverse proxy.
// The first parseable entry of X-Forwarded-For wins, then X-Real-IP, then
// the host part of RemoteAddr. Header values that are not IPs are ignored.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}
	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return hostOnly(r.RemoteAddr)
}

func parseIP(s string) string {
	ip := net.ParseIP(hostOnly(strings.TrimSpace(s)))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// hostOnly strips a port, and the brackets around an IPv6 host.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
