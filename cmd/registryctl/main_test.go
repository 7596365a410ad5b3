package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/adminclient"
	commitfeature "github.com/dalemusser/stratacatalog/internal/app/features/commit"
	registryfilefeature "github.com/dalemusser/stratacatalog/internal/app/features/registryfile"
	"github.com/dalemusser/stratacatalog/internal/app/registry"
	signfeature "github.com/dalemusser/stratacatalog/internal/app/features/sign"
	uploadsfeature "github.com/dalemusser/stratacatalog/internal/app/features/uploads"
	"github.com/dalemusser/stratacatalog/internal/app/system/auth"
	"github.com/dalemusser/stratacatalog/internal/app/system/etag"
	"github.com/dalemusser/stratacatalog/internal/app/system/publisher"
	"github.com/dalemusser/stratacatalog/internal/app/system/registrybackend"
	"github.com/dalemusser/stratacatalog/internal/app/system/signer"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const adminToken = "secret"

type memBackend struct {
	mu  sync.Mutex
	doc *models.RegistryDocument
}

func (m *memBackend) Name() string { return "mongo" }

func (m *memBackend) Get(ctx context.Context) (*models.RegistryDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, registrybackend.ErrNotFound
	}
	d := *m.doc
	return &d, nil
}

func (m *memBackend) Commit(ctx context.Context, body []byte, expected string) (*models.RegistryDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expected != "" && (m.doc == nil || m.doc.ETag != expected) {
		return nil, registrybackend.ErrConflict
	}
	m.doc = &models.RegistryDocument{Body: body, ETag: etag.Compute(body), VersionID: uuid.NewString(), UpdatedAt: time.Now()}
	d := *m.doc
	return &d, nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memObjects) Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[path] = string(b)
	m.mu.Unlock()
	return nil
}

// newCatalogServer runs the registry, sign, upload and commit endpoints
// over in-memory storage.
func newCatalogServer(t *testing.T) (*httptest.Server, *memObjects) {
	t.Helper()
	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	local, err := signer.NewLocal(srv.URL, []byte("0123456789abcdef0123456789abcdef"), time.Minute)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	pub := publisher.New(&memBackend{}, nil, nil, logger)
	objs := &memObjects{objects: map[string]string{}}

	r := chi.NewRouter()
	registryfilefeature.MountRoutes(r, registryfilefeature.NewHandler(pub, logger))
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.AdminToken(adminToken, "", logger))
		signfeature.MountRoutes(r, signfeature.NewHandler(local, nil, logger))
		commitfeature.MountRoutes(r, commitfeature.NewHandler(pub, 0, logger))
	})
	r.Mount("/api/uploads", uploadsfeature.Routes(uploadsfeature.NewHandler(local, objs, 0, nil, logger)))
	handler = r

	return srv, objs
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestNormalize(t *testing.T) {
	in := writeFile(t, "raw.json", `{"site":{},"brands":{"acme":{"items":[{"name":"Tote Bag"},{"name":"Tote Bag"}]}}}`)

	out, err := run(t, "normalize", in)
	if err != nil {
		t.Fatalf("normalize error = %v", err)
	}
	var reg models.Registry
	if err := json.Unmarshal([]byte(out), &reg); err != nil {
		t.Fatalf("output is not a registry: %v\n%s", err, out)
	}
	b, ok := reg.Brands.Get("acme")
	if !ok || len(b.Items) != 2 {
		t.Fatalf("brand acme = %+v", b)
	}
	if b.Items[0].Slug != "tote-bag" || b.Items[1].Slug != "tote-bag-2" {
		t.Errorf("slugs = %q, %q", b.Items[0].Slug, b.Items[1].Slug)
	}
	if len(b.Items[0].Article.Blocks) != models.ArticleSlots {
		t.Errorf("blocks = %d, want %d", len(b.Items[0].Article.Blocks), models.ArticleSlots)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	in := writeFile(t, "bad.json", `{"site":{},"brands":[]}`)
	out, err := run(t, "normalize", in)
	if err == nil {
		t.Fatal("normalize accepted a malformed registry")
	}
	if !strings.Contains(out, "brands") {
		t.Errorf("issues not printed: %q", out)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		want    string
	}{
		{"valid", `{"site":{},"brands":{"ACME":{"items":[{"name":"One"},{"name":"Two"}]}}}`, false, "ok: 1 brands, 2 items"},
		{"bad purchase link", `{"site":{},"brands":{"ACME":{"items":[{"name":"One","article":{"wbLink":"ftp://x"}}]}}}`, true, "wbLink"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "validate", writeFile(t, "draft.json", tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output %q does not contain %q", out, tt.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	srv, _ := newCatalogServer(t)

	out, err := run(t, "login", "--base-url", srv.URL, "--admin-token", adminToken)
	if err != nil || !strings.Contains(out, "accepted") {
		t.Fatalf("login = %q, %v", out, err)
	}
	if _, err := run(t, "login", "--base-url", srv.URL, "--admin-token", "wrong"); err == nil {
		t.Error("login accepted a wrong token")
	}
}

func TestSaveFetchUpload(t *testing.T) {
	srv, objs := newCatalogServer(t)
	draft := writeFile(t, "draft.json", `{"site":{"heroNote":"hi"},"brands":{"ACME":{"items":[{"name":"Tote Bag"}]}}}`)
	common := []string{"--base-url", srv.URL, "--admin-token", adminToken}

	// Nothing published yet: the first save goes out without a token.
	out, err := run(t, append([]string{"save", "--draft", draft}, common...)...)
	if err != nil {
		t.Fatalf("first save error = %v (%s)", err, out)
	}
	if !strings.Contains(out, "saved: etag") {
		t.Errorf("save output = %q", out)
	}

	out, err = run(t, "fetch", "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	for _, want := range []string{"source:       " + srv.URL + "/registry.json", "brands:       1", "items:        1"} {
		if !strings.Contains(out, want) {
			t.Errorf("fetch output missing %q:\n%s", want, out)
		}
	}

	logo := writeFile(t, "acme logo.png", "png-bytes")
	out, err = run(t, append([]string{"upload", "--draft", draft, "--brand", "ACME", "--field", "brandLogo", logo}, common...)...)
	if err != nil {
		t.Fatalf("upload error = %v (%s)", err, out)
	}
	const stored = "CONTENT/BRAND PAGE/ACME/acme_logo.png"
	objs.mu.Lock()
	got := objs.objects[stored]
	objs.mu.Unlock()
	if got != "png-bytes" {
		t.Errorf("stored object %q = %q", stored, got)
	}

	raw, err := os.ReadFile(draft)
	if err != nil {
		t.Fatal(err)
	}
	var reg models.Registry
	if err := json.Unmarshal(raw, &reg); err != nil {
		t.Fatalf("draft rewrite is not a registry: %v", err)
	}
	if b, _ := reg.Brands.Get("ACME"); b == nil || b.BrandLogo != stored {
		t.Errorf("brandLogo = %+v, want %q", b, stored)
	}

	if _, err := run(t, append([]string{"save", "--draft", draft}, common...)...); err != nil {
		t.Fatalf("second save error = %v", err)
	}
	out, _ = run(t, "fetch", "--base-url", srv.URL, "-o", filepath.Join(t.TempDir(), "out.json"))
	if !strings.Contains(out, "change-token: ") || strings.Contains(out, "(none)") {
		t.Errorf("fetch did not report a change-token:\n%s", out)
	}
}

func TestPrintIssues(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "local validation",
			err: &registry.ValidationError{Kind: registry.ErrDraftInvalid, Issues: []registry.Issue{
				{Path: "brands.ACME.items.0.slug", Message: "could not derive a slug"},
			}},
			want: "  brands.ACME.items.0.slug: could not derive a slug\n",
		},
		{
			name: "rejected commit",
			err: fmt.Errorf("save: %w", &adminclient.CommitError{StatusCode: http.StatusBadRequest, Code: "validation failed", Issues: []registry.Issue{
				{Path: "site.heroNote", Message: "<script> element is not allowed"},
				{Path: "brands.ACME.items.1.article.wbLink", Message: "wbLink must start with http:// or https://"},
			}}),
			want: "  site.heroNote: <script> element is not allowed\n" +
				"  brands.ACME.items.1.article.wbLink: wbLink must start with http:// or https://\n",
		},
		{name: "other error", err: errors.New("offline"), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printIssues(&buf, tt.err)
			if buf.String() != tt.want {
				t.Errorf("printIssues() wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
