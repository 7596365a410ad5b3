package registry

import (
	"testing"

	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"github.com/google/go-cmp/cmp"
)

func TestFindItem(t *testing.T) {
	b := &models.Brand{Items: []models.Item{
		{Name: "Old Name", Slug: "custom"},
		{Name: "Summer Dress", Slug: ""},
		{Name: "Custom", Slug: "other"},
	}}

	tests := []struct {
		slug     string
		wantName string
		wantOK   bool
	}{
		{"custom", "Old Name", true},
		{"summer-dress", "Summer Dress", true},
		{"old-name", "Old Name", true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			it, ok := FindItem(b, tt.slug)
			if ok != tt.wantOK {
				t.Fatalf("FindItem(%q) ok = %v, want %v", tt.slug, ok, tt.wantOK)
			}
			if ok && it.Name != tt.wantName {
				t.Errorf("FindItem(%q) = %q, want %q", tt.slug, it.Name, tt.wantName)
			}
		})
	}

	if _, ok := FindItem(nil, "x"); ok {
		t.Error("FindItem(nil) ok = true, want false")
	}
}

func TestHomeOrder(t *testing.T) {
	reg := mustParse(t, `{"site": {}, "brands": {"A": {}, "B": {}, "C": {}}}`)
	if diff := cmp.Diff([]string{"A", "B", "C"}, HomeOrder(reg)); diff != "" {
		t.Errorf("document order mismatch (-want +got):\n%s", diff)
	}

	reg.Site.BrandsOrder = []string{"C", "GONE", "A", "C"}
	if diff := cmp.Diff([]string{"C", "A"}, HomeOrder(reg)); diff != "" {
		t.Errorf("brandsOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAsset(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"https://cdn.example/", "CONTENT/BRAND PAGE/ACME/a b.jpg", "https://cdn.example/CONTENT/BRAND%20PAGE/ACME/a%20b.jpg"},
		{"https://cdn.example", "/x.png", "https://cdn.example/x.png"},
		{"https://cdn.example", "https://other.example/y.png", "https://other.example/y.png"},
		{"https://cdn.example", "HTTP://other.example/y.png", "HTTP://other.example/y.png"},
		{"https://cdn.example", "", ""},
		{"", "x.png", "/x.png"},
	}
	for _, tt := range tests {
		if got := ResolveAsset(tt.base, tt.ref); got != tt.want {
			t.Errorf("ResolveAsset(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}
