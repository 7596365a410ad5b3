package sign

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/system/metrics"
	"github.com/dalemusser/stratacatalog/internal/app/system/signer"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, m *metrics.Metrics) (http.Handler, *signer.Local) {
	t.Helper()
	local, err := signer.NewLocal("https://cat.example", []byte("0123456789abcdef0123456789abcdef"), 10*time.Minute)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	r := chi.NewRouter()
	MountRoutes(r, NewHandler(local, m, zap.NewNop()))
	return r, local
}

func TestSign(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, local := newRouter(t, metrics.New(reg, "test"))

	body := `{"path":"CONTENT/BRAND PAGE/ACME/logo.png","contentType":"image/png"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sign", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var got signer.Signed
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Key != "CONTENT/BRAND PAGE/ACME/logo.png" || got.Headers["Content-Type"] != "image/png" {
		t.Errorf("signed = %+v", got)
	}
	token := strings.TrimPrefix(got.URL, "https://cat.example"+signer.UploadsPath)
	if token == got.URL {
		t.Fatalf("url %q is not an upload url", got.URL)
	}

	raw, err := url.PathUnescape(token)
	if err != nil {
		t.Fatalf("unescape token: %v", err)
	}
	claim, err := local.Verify(raw)
	if err != nil || claim.Path != got.Key || claim.ContentType != "image/png" {
		t.Errorf("Verify() = %+v, %v", claim, err)
	}

	if n := testutil.CollectAndCount(reg, "test_uploads_signed_total"); n != 1 {
		t.Errorf("signed series = %d, want 1", n)
	}
}

func TestSign_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `{`, "invalid JSON payload"},
		{"outside content", `{"path":"etc/passwd"}`, "invalid path"},
		{"traversal", `{"path":"CONTENT/../secret"}`, "invalid path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newRouter(t, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sign", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var out map[string]string
			_ = json.NewDecoder(rec.Body).Decode(&out)
			if out["error"] != tt.want {
				t.Errorf("error = %q, want %q", out["error"], tt.want)
			}
		})
	}
}
