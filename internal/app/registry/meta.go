package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/domain/models"
)

// ContentPrefix is the storage prefix of per-item content folders.
const ContentPrefix = "CONTENT/SKU PAGE/"

// ItemMeta is an item's standalone content file. It supplies the article
// when the registry entry has none.
type ItemMeta struct {
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Article   models.Article `json:"article"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

// MetaPath returns the storage key of the content file for slug.
func MetaPath(slug string) string {
	return ContentPrefix + strings.ToLower(strings.TrimSpace(slug)) + "/meta.json"
}

// ParseItemMeta decodes a content file. name and slug are required;
// article and updatedAt are optional. Every error wraps ErrMalformedContent;
// shape errors are reported together as a *ValidationError.
func ParseItemMeta(raw []byte) (*ItemMeta, error) {
	if !json.Valid(raw) {
		var v any
		err := json.Unmarshal(raw, &v)
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrMalformedContent, err)
	}

	var r reader
	o := r.object(raw, "")
	if o == nil {
		return nil, r.issues.err(ErrMalformedContent)
	}

	var m ItemMeta
	m.Name = r.requiredStr(o, "name")
	m.Slug = r.requiredStr(o, "slug")
	m.UpdatedAt, _ = r.str(o, "updatedAt", "updatedAt")

	var a articleInput
	if ao := r.optObject(o, "article", "article"); ao != nil {
		a = r.article(ao, "article")
	}
	if err := r.issues.err(ErrMalformedContent); err != nil {
		return nil, err
	}
	m.Article = a.model("")
	return &m, nil
}

func (r *reader) requiredStr(o *object, field string) string {
	if _, ok := o.get(field); !ok {
		r.issues.add(field, "required")
		return ""
	}
	s, _ := r.str(o, field, field)
	return s
}
