package adminclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"go.uber.org/zap"
)

// fakeState stands in for the registry store.
type fakeState struct {
	mu        sync.Mutex
	token     string
	refreshed []string // tokens handed out by successive refreshes
	refreshes int
	err       error
}

func (s *fakeState) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.err != nil {
		s.token = ""
		return s.err
	}
	if len(s.refreshed) > 0 {
		s.token = s.refreshed[0]
		s.refreshed = s.refreshed[1:]
	}
	return nil
}

func (s *fakeState) ChangeToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeState) SetChangeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func loggedInPipeline(t *testing.T, f *fakeAdmin, st *fakeState) *Pipeline {
	t.Helper()
	c := f.client()
	sess := NewSession(c, zap.NewNop())
	if err := sess.Login(context.Background(), "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return NewPipeline(c, sess, st, nil, zap.NewNop())
}

func TestSave_InvalidDraftNeverCallsNetwork(t *testing.T) {
	f := newFakeAdmin(t)
	p := loggedInPipeline(t, f, &fakeState{})

	draft := baseRegistry()
	b, _ := draft.Brands.Get("ACME")
	b.Items[1].Name = " "
	b.Items[1].Slug = "alpha"
	b.Items[0].Article.WBLink = "ftp://nope"

	_, err := p.Save(context.Background(), draft, "t1", true)
	if !errors.Is(err, registry.ErrDraftInvalid) {
		t.Fatalf("Save() error = %v, want ErrDraftInvalid", err)
	}
	var ve *registry.ValidationError
	if !errors.As(err, &ve) || len(ve.Issues) != 3 {
		t.Errorf("issues = %+v, want 3", ve)
	}
	if f.commitCount() != 0 {
		t.Errorf("commit endpoint called %d times for an invalid draft", f.commitCount())
	}
}

func TestSave_SendsExpectedTokenOnlyWhenRemote(t *testing.T) {
	tests := []struct {
		name     string
		remote   bool
		wantSent string
	}{
		{"remote", true, "t1"},
		{"local", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAdmin(t)
			st := &fakeState{token: "t1", refreshed: []string{"t2"}}
			p := loggedInPipeline(t, f, st)

			res, err := p.Save(context.Background(), baseRegistry(), "t1", tt.remote)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if sent := f.sentETags(); sent[0] != tt.wantSent {
				t.Errorf("expectedEtag sent = %q, want %q", sent[0], tt.wantSent)
			}
			if res.ETag != "etag-new" || res.VersionID != "v2" || res.Retried {
				t.Errorf("result = %+v", res)
			}
			// The refreshed token wins over the commit's etag.
			if st.ChangeToken() != "t2" {
				t.Errorf("store token = %q, want t2", st.ChangeToken())
			}
		})
	}
}

func TestSave_AdoptsCommitETagWhenRefreshHasNone(t *testing.T) {
	f := newFakeAdmin(t)
	st := &fakeState{err: errors.New("offline")}
	p := loggedInPipeline(t, f, st)

	if _, err := p.Save(context.Background(), baseRegistry(), "", false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if st.ChangeToken() != "etag-new" {
		t.Errorf("store token = %q, want etag-new", st.ChangeToken())
	}
}

func TestSave_ConflictRetriesOnceWithFreshToken(t *testing.T) {
	f := newFakeAdmin(t)
	f.commitQueue = []int{http.StatusConflict}
	st := &fakeState{token: "stale", refreshed: []string{"fresh", "after"}}
	p := loggedInPipeline(t, f, st)

	res, err := p.Save(context.Background(), baseRegistry(), "stale", true)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !res.Retried {
		t.Error("Retried = false after a conflict")
	}
	if f.commitCount() != 2 {
		t.Fatalf("commits = %d, want 2", f.commitCount())
	}
	if sent := f.sentETags(); sent[0] != "stale" || sent[1] != "fresh" {
		t.Errorf("expected etags = %v, want [stale fresh]", sent)
	}
	f.mu.Lock()
	first, _ := f.commits[0].JSON.Brands.Get("ACME")
	second, _ := f.commits[1].JSON.Brands.Get("ACME")
	f.mu.Unlock()
	if first.Items[0].Name != second.Items[0].Name || len(first.Items) != len(second.Items) {
		t.Error("retry submitted a different registry")
	}
	if st.refreshes != 2 {
		t.Errorf("refreshes = %d, want 2 (conflict + success)", st.refreshes)
	}
}

func TestSave_SecondConflictIsTerminal(t *testing.T) {
	f := newFakeAdmin(t)
	f.commitQueue = []int{http.StatusConflict, http.StatusConflict, http.StatusOK}
	p := loggedInPipeline(t, f, &fakeState{refreshed: []string{"fresh"}})

	_, err := p.Save(context.Background(), baseRegistry(), "stale", true)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Save() error = %v, want ErrConflict", err)
	}
	var ce *CommitError
	if !errors.As(err, &ce) || !ce.Retried {
		t.Errorf("error = %#v, want CommitError with Retried", err)
	}
	if f.commitCount() != 2 {
		t.Errorf("commits = %d, want exactly 2", f.commitCount())
	}
}

func TestSave_RequiresLogin(t *testing.T) {
	f := newFakeAdmin(t)
	c := f.client()
	p := NewPipeline(c, NewSession(c, zap.NewNop()), &fakeState{}, nil, zap.NewNop())

	if _, err := p.Save(context.Background(), baseRegistry(), "", false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Save() error = %v, want ErrUnauthorized", err)
	}
}

func TestUpload_SetsFieldToRelativePath(t *testing.T) {
	tests := []struct {
		name        string
		signHeaders map[string]string
		contentType string
		wantCT      string
	}{
		{"signer headers", map[string]string{"Content-Type": "image/webp"}, "image/png", "image/webp"},
		{"default header", nil, "image/png", "image/png"},
		{"unknown type", nil, "", DefaultContentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAdmin(t)
			f.signHeaders = tt.signHeaders
			p := loggedInPipeline(t, f, &fakeState{})
			d := NewDraft(baseRegistry())

			path, err := p.Upload(context.Background(), d, "ACME", ItemHoverImage(1), File{
				Name: "hover shot.png", ContentType: tt.contentType, Body: strings.NewReader("png"), Size: 3,
			})
			if err != nil {
				t.Fatalf("Upload() error = %v", err)
			}
			if path != "CONTENT/BRAND PAGE/ACME/hover_shot.png" {
				t.Errorf("path = %q", path)
			}
			got, _ := d.Get("ACME", ItemHoverImage(1))
			if got != path {
				t.Errorf("field = %q, want %q", got, path)
			}
			h, body := f.lastPut()
			if body != "png" || h.Get("Content-Type") != tt.wantCT {
				t.Errorf("PUT body %q content-type %q, want png %q", body, h.Get("Content-Type"), tt.wantCT)
			}
		})
	}
}

func TestUpload_FailureLeavesDraftUnchanged(t *testing.T) {
	f := newFakeAdmin(t)
	f.putStatus = http.StatusInternalServerError
	p := loggedInPipeline(t, f, &fakeState{})
	d := NewDraft(baseRegistry())

	_, err := p.Upload(context.Background(), d, "ACME", BrandLogo(), File{Name: "x.png", Body: strings.NewReader("x"), Size: 1})
	var ue *UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("Upload() error = %v, want *UploadError", err)
	}
	got, _ := d.Get("ACME", BrandLogo())
	if got != "CONTENT/acme.png" {
		t.Errorf("brandLogo = %q, want unchanged", got)
	}
}

func TestSave_ValidatesCopyNotDraft(t *testing.T) {
	f := newFakeAdmin(t)
	p := loggedInPipeline(t, f, &fakeState{})
	draft := &models.Registry{}
	draft.Brands.Set("A", models.Brand{Items: []models.Item{{Name: "One"}}})

	if _, err := p.Save(context.Background(), draft, "", false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	b, _ := draft.Brands.Get("A")
	if b.Items[0].Article.Blocks != nil {
		t.Error("Save padded the caller's draft in place")
	}
}
