package registry

import (
	"net/url"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/app/system/slug"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
)

// FindItem returns the item in brand whose slug equals s, falling back to
// the first item whose slugified name equals s.
func FindItem(b *models.Brand, s string) (*models.Item, bool) {
	if b == nil {
		return nil, false
	}
	for i := range b.Items {
		if b.Items[i].Slug != "" && b.Items[i].Slug == s {
			return &b.Items[i], true
		}
	}
	for i := range b.Items {
		if slug.Make(b.Items[i].Name) == s {
			return &b.Items[i], true
		}
	}
	return nil, false
}

// HomeOrder returns the brand keys the home page shows, in order:
// site.brandsOrder when it is set (unknown keys skipped), else document order.
func HomeOrder(reg *models.Registry) []string {
	if len(reg.Site.BrandsOrder) == 0 {
		return reg.Brands.Keys()
	}
	out := make([]string, 0, len(reg.Site.BrandsOrder))
	seen := make(map[string]bool)
	for _, k := range reg.Site.BrandsOrder {
		if _, ok := reg.Brands.Get(k); ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	return out
}

// ResolveAsset turns an asset reference into a URL. Absolute http(s) URLs
// pass through; relative keys are joined to base with each segment escaped.
// An empty reference stays empty.
func ResolveAsset(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || IsHTTPURL(ref) {
		return ref
	}
	key := strings.TrimLeft(ref, "/")
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
