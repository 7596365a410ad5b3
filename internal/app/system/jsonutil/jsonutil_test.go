package jsonutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%q)", err, rec.Body.String())
	}
	return out
}

func TestErrorShapes(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantBody   map[string]any
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "invalid json") },
			http.StatusBadRequest, map[string]any{"error": "invalid json"}},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "unauthorized") },
			http.StatusUnauthorized, map[string]any{"error": "unauthorized"}},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "not_found") },
			http.StatusNotFound, map[string]any{"error": "not_found"}},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "etag_mismatch") },
			http.StatusConflict, map[string]any{"error": "etag_mismatch"}},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "internal") },
			http.StatusInternalServerError, map[string]any{"error": "internal"}},
		{"detail", func(w http.ResponseWriter) { ErrorDetail(w, http.StatusBadGateway, "backend", "s3 down") },
			http.StatusBadGateway, map[string]any{"error": "backend", "detail": "s3 down"}},
		{"empty detail", func(w http.ResponseWriter) { ErrorDetail(w, http.StatusBadGateway, "backend", "") },
			http.StatusBadGateway, map[string]any{"error": "backend"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if diff := cmp.Diff(tt.wantBody, decodeBody(t, rec)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidationIssues(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationIssues(rec, []map[string]string{{"path": "brands.A", "message": "bad"}})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	got := decodeBody(t, rec)
	want := map[string]any{
		"error":  "validation failed",
		"issues": []any{map[string]any{"path": "brands.A", "message": "bad"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeLimited(t *testing.T) {
	var v struct {
		Path string `json:"path"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"path":"CONTENT/a"}`))
	if err := DecodeLimited(r, &v, 1024); err != nil || v.Path != "CONTENT/a" {
		t.Errorf("DecodeLimited() = %v, path %q", err, v.Path)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"path":"`+strings.Repeat("x", 100)+`"}`))
	if err := DecodeLimited(r, &v, 10); !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("DecodeLimited(large) error = %v, want ErrBodyTooLarge", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"path":`))
	if err := DecodeLimited(r, &v, 1024); err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("DecodeLimited(truncated) error = %v", err)
	}
}

func TestDecode(t *testing.T) {
	var v map[string]int
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	if err := Decode(r, &v); err != nil || v["a"] != 1 {
		t.Errorf("Decode() = %v, %v", v, err)
	}
}
