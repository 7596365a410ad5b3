// internal/domain/models/registry.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ArticleSlots is the fixed number of text blocks and images an article page lays out.
// Index 0 of Images is the lead image, 1-6 are body images.
const ArticleSlots = 7

// Registry is the canonical catalog document: site-wide text plus every brand.
type Registry struct {
	Site   Site   `json:"site"`
	Brands Brands `json:"brands"`
}

// Site holds global display text and links.
// HeroNote and FooterNote are always present after normalization.
type Site struct {
	HanifaLogo   string   `json:"hanifaLogo,omitempty"`
	HeroNote     string   `json:"heroNote"`
	TelegramIcon string   `json:"telegramIcon,omitempty"`
	TelegramLink string   `json:"telegramLink,omitempty"`
	FooterNote   string   `json:"footerNote"`
	BrandsOrder  []string `json:"brandsOrder,omitempty"`
}

// Brand is one brand page: logos for the home grid and an ordered item list.
type Brand struct {
	BrandLogo     string `json:"brandLogo,omitempty"`
	HomeLogoBase  string `json:"homeLogoBase,omitempty"`
	HomeLogoHover string `json:"homeLogoHover,omitempty"`
	Items         []Item `json:"items"`
}

// Item is a catalog card plus its article page.
type Item struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	BaseImage  string  `json:"baseImage,omitempty"`
	HoverImage string  `json:"hoverImage,omitempty"`
	WBLink     string  `json:"wbLink,omitempty"` // legacy top-level purchase link
	Article    Article `json:"article"`
}

// Article is the long-form content attached to an item.
type Article struct {
	Blocks     []string `json:"blocks"`
	Images     []string `json:"images"`
	WBLink     string   `json:"wbLink,omitempty"`
	TocBefore1 string   `json:"tocBefore1"`
	TocBefore2 string   `json:"tocBefore2"`
	TocBefore5 string   `json:"tocBefore5"`
	TocBefore6 string   `json:"tocBefore6"`
}

// Block returns block i, or "" when the slot is empty or out of range.
func (a Article) Block(i int) string {
	if i < 0 || i >= len(a.Blocks) {
		return ""
	}
	return a.Blocks[i]
}

// Image returns image i, or "" when the slot is empty or out of range.
func (a Article) Image(i int) string {
	if i < 0 || i >= len(a.Images) {
		return ""
	}
	return a.Images[i]
}

// IsEmpty reports whether the article has no text, no images and no link.
func (a Article) IsEmpty() bool {
	if strings.TrimSpace(a.WBLink) != "" {
		return false
	}
	for _, s := range a.Blocks {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	for _, s := range a.Images {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// TocBefore returns the subheading rendered before block i, if any.
func (a Article) TocBefore(i int) string {
	switch i {
	case 1:
		return a.TocBefore1
	case 2:
		return a.TocBefore2
	case 5:
		return a.TocBefore5
	case 6:
		return a.TocBefore6
	}
	return ""
}

// PurchaseLink returns the article link, falling back to the legacy item-level one.
func (it Item) PurchaseLink() string {
	if it.Article.WBLink != "" {
		return it.Article.WBLink
	}
	return it.WBLink
}

// Brands is an insertion-ordered mapping from brand key to Brand.
// JSON objects lose their member order in a Go map, and brand order is
// the fallback display order, so keys are tracked separately.
type Brands struct {
	keys []string
	m    map[string]*Brand
}

// Len returns the number of brands.
func (b *Brands) Len() int {
	return len(b.keys)
}

// Keys returns brand keys in document order.
func (b *Brands) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Get returns the brand stored under key (exact match).
func (b *Brands) Get(key string) (*Brand, bool) {
	if b.m == nil {
		return nil, false
	}
	br, ok := b.m[key]
	return br, ok
}

// Find returns the brand whose key matches key case-insensitively,
// along with the stored key.
func (b *Brands) Find(key string) (string, *Brand, bool) {
	if br, ok := b.Get(key); ok {
		return key, br, true
	}
	for _, k := range b.keys {
		if strings.EqualFold(k, key) {
			return k, b.m[k], true
		}
	}
	return "", nil, false
}

// Set stores brand under key. New keys are appended; existing keys keep their position.
func (b *Brands) Set(key string, brand Brand) {
	if b.m == nil {
		b.m = make(map[string]*Brand)
	}
	if _, ok := b.m[key]; !ok {
		b.keys = append(b.keys, key)
	}
	br := brand
	b.m[key] = &br
}

// Delete removes key. It reports whether the key was present.
func (b *Brands) Delete(key string) bool {
	if _, ok := b.m[key]; !ok {
		return false
	}
	delete(b.m, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i:i], b.keys[i+1:]...)
			break
		}
	}
	return true
}

// Each calls fn for every brand in order. Iteration stops when fn returns false.
func (b *Brands) Each(fn func(key string, brand *Brand) bool) {
	for _, k := range b.keys {
		if !fn(k, b.m[k]) {
			return
		}
	}
}

// MarshalJSON writes brands as a JSON object in key order.
func (b Brands) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(b.m[k])
		if err != nil {
			return nil, fmt.Errorf("brand %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a canonical brands object, keeping member order.
// It does not accept legacy shapes; use the registry normalizer for raw input.
func (b *Brands) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = Brands{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("brands: expected object")
	}
	out := Brands{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var br Brand
		if err := dec.Decode(&br); err != nil {
			return fmt.Errorf("brand %q: %w", key, err)
		}
		out.Set(key, br)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = out
	return nil
}

// Clone returns a deep copy of the registry. Edits to the copy never
// reach the original.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	out := &Registry{Site: r.Site}
	out.Site.BrandsOrder = cloneStrings(r.Site.BrandsOrder)
	r.Brands.Each(func(key string, br *Brand) bool {
		out.Brands.Set(key, br.Clone())
		return true
	})
	return out
}

// Clone returns a deep copy of the brand.
func (b *Brand) Clone() Brand {
	out := *b
	if b.Items != nil {
		out.Items = make([]Item, len(b.Items))
		for i, it := range b.Items {
			out.Items[i] = it.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	out.Article.Blocks = cloneStrings(it.Article.Blocks)
	out.Article.Images = cloneStrings(it.Article.Images)
	return out
}

// ItemCount returns the total number of items across all brands.
func (r *Registry) ItemCount() int {
	n := 0
	r.Brands.Each(func(_ string, br *Brand) bool {
		n += len(br.Items)
		return true
	})
	return n
}

// EmptySlots returns n empty strings.
func EmptySlots(n int) []string {
	return make([]string, n)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
