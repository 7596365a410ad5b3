package network

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		want       string
	}{
		{name: "remote addr with port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "ipv6 remote addr", remoteAddr: "[::1]:12345", want: "::1"},
		{name: "forwarded chain uses first hop", xff: "203.0.113.7, 10.0.0.2", remoteAddr: "10.0.0.1:1", want: "203.0.113.7"},
		{name: "forwarded with spaces", xff: "  203.0.113.7  ", remoteAddr: "10.0.0.1:1", want: "203.0.113.7"},
		{name: "forwarded with port", xff: "203.0.113.7:443", remoteAddr: "10.0.0.1:1", want: "203.0.113.7"},
		{name: "forwarded beats real ip", xff: "203.0.113.7", xRealIP: "198.51.100.1", remoteAddr: "10.0.0.1:1", want: "203.0.113.7"},
		{name: "real ip", xRealIP: "198.51.100.1", remoteAddr: "10.0.0.1:1", want: "198.51.100.1"},
		{name: "garbage forwarded falls through", xff: "unknown", xRealIP: "198.51.100.1", remoteAddr: "10.0.0.1:1", want: "198.51.100.1"},
		{name: "garbage headers use remote addr", xff: "nope", xRealIP: "also nope", remoteAddr: "10.0.0.1:1", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/admin/commit", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				r.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
