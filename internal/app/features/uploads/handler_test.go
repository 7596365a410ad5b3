package uploads

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/system/signer"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type memObjects struct {
	objects map[string]string
	types   map[string]string
}

func (m *memObjects) Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[path] = string(b)
	m.types[path] = opts.ContentType
	return nil
}

func setup(t *testing.T, maxBytes int64) (http.Handler, *signer.Local, *memObjects) {
	t.Helper()
	local, err := signer.NewLocal("", []byte("0123456789abcdef0123456789abcdef"), time.Minute)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	objs := &memObjects{objects: map[string]string{}, types: map[string]string{}}
	r := chi.NewRouter()
	r.Mount("/api/uploads", Routes(NewHandler(local, objs, maxBytes, nil, zap.NewNop())))
	return r, local, objs
}

func signedPath(t *testing.T, local *signer.Local, path, ct string) string {
	t.Helper()
	s, err := local.Sign(context.Background(), path, ct)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		t.Fatalf("parse %q: %v", s.URL, err)
	}
	return u.EscapedPath()
}

func TestPut_StoresAtSignedPath(t *testing.T) {
	h, local, objs := setup(t, 0)
	target := signedPath(t, local, "CONTENT/BRAND PAGE/ACME/logo.png", "image/png")

	req := httptest.NewRequest(http.MethodPut, target, strings.NewReader("pngbytes"))
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := objs.objects["CONTENT/BRAND PAGE/ACME/logo.png"]; got != "pngbytes" {
		t.Errorf("stored = %q", got)
	}
	if got := objs.types["CONTENT/BRAND PAGE/ACME/logo.png"]; got != "image/png" {
		t.Errorf("content type = %q", got)
	}
}

func TestPut_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		path       func(*signer.Local) string
		ct         string
		body       string
		wantStatus int
	}{
		{
			name:       "forged token",
			path:       func(*signer.Local) string { return "/api/uploads/not-a-token" },
			ct:         "image/png",
			body:       "x",
			wantStatus: http.StatusForbidden,
		},
		{
			name: "content type mismatch",
			path: func(l *signer.Local) string {
				return signedPath(t, l, "CONTENT/a.png", "image/png")
			},
			ct:         "text/html",
			body:       "x",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "too large",
			path: func(l *signer.Local) string {
				return signedPath(t, l, "CONTENT/a.png", "image/png")
			},
			ct:         "image/png",
			body:       strings.Repeat("x", 64),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, local, objs := setup(t, 16)
			req := httptest.NewRequest(http.MethodPut, tt.path(local), strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ct)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(objs.objects) != 0 {
				t.Errorf("stored %v for a rejected upload", objs.objects)
			}
		})
	}
}

func TestSameMediaType(t *testing.T) {
	if !sameMediaType("Image/PNG; charset=binary", "image/png") {
		t.Error("parameters and case should not matter")
	}
	if sameMediaType("image/jpeg", "image/png") {
		t.Error("different types matched")
	}
}
