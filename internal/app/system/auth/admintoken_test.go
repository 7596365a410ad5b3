package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}

	tests := []struct {
		name       string
		token      string
		hash       string
		header     string
		value      string
		wantStatus int
	}{
		{"plain token", "s3cret", "", AdminTokenHeader, "s3cret", http.StatusOK},
		{"bearer fallback", "s3cret", "", "Authorization", "Bearer s3cret", http.StatusOK},
		{"hashed token", "", string(hash), AdminTokenHeader, "hashed-secret", http.StatusOK},
		{"wrong token", "s3cret", string(hash), AdminTokenHeader, "nope", http.StatusUnauthorized},
		{"missing token", "s3cret", "", "", "", http.StatusUnauthorized},
		{"not configured", "", "", AdminTokenHeader, "anything", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := AdminToken(tt.token, tt.hash, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(http.MethodPost, "/api/admin/commit", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("next called = %v", called)
			}
		})
	}
}
