package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/app/system/auth"
)

// TestAdminToken is the admin credential test routers are configured with.
const TestAdminToken = "test-admin-token"

// NewJSONRequest creates a request with a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewAdminRequest is NewJSONRequest carrying TestAdminToken in the admin header.
func NewAdminRequest(method, target, body string) *http.Request {
	req := NewJSONRequest(method, target, body)
	req.Header.Set(auth.AdminTokenHeader, TestAdminToken)
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// AssertError checks that the body is a JSON error with the given code.
func (r *ResponseRecorder) AssertError(t interface{ Errorf(string, ...any) }, code string) {
	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &out); err != nil {
		t.Errorf("response is not a JSON error: %v", err)
		return
	}
	if out.Error != code {
		t.Errorf("error code: got %q, want %q", out.Error, code)
	}
}
