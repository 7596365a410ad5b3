// Package registry parses, normalizes and validates the catalog registry document.
package registry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/stratacatalog/internal/app/system/slug"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
)

// itemInput is one item as read from the document, before defaults are applied.
type itemInput struct {
	id         string
	hasID      bool
	name       string
	slug       string
	baseImage  string
	hoverImage string
	wbLink     string
	article    articleInput
}

type articleInput struct {
	blocks []string
	images []string
	wbLink string
	toc1   string
	toc2   string
	toc5   string
	toc6   string
}

type brandInput struct {
	key           string
	brandLogo     string
	homeLogoBase  string
	homeLogoHover string
	items         []itemInput
}

// Parse decodes raw registry JSON and normalizes it into the canonical model.
//
// Syntax errors are returned as-is. Shape errors are reported together as a
// *ValidationError wrapping ErrMalformedDocument, and no registry is returned.
// Missing optional fields never fail: they get defaults.
func Parse(raw []byte) (*models.Registry, error) {
	if !json.Valid(raw) {
		var v any
		err := json.Unmarshal(raw, &v)
		return nil, fmt.Errorf("registry: invalid JSON: %w", err)
	}

	var r reader
	site, brands := r.root(raw)
	if err := r.issues.err(ErrMalformedDocument); err != nil {
		return nil, err
	}

	out := &models.Registry{Site: site}
	for _, b := range brands {
		out.Brands.Set(b.key, normalizeBrand(b))
	}
	return out, nil
}

// root validates the whole document shape before anything is normalized.
func (r *reader) root(raw []byte) (models.Site, []brandInput) {
	var site models.Site
	doc := r.object(raw, "")
	if doc == nil {
		return site, nil
	}

	siteRaw, ok := doc.get("site")
	if !ok {
		r.issues.add("site", "required")
	} else if so := r.object(siteRaw, "site"); so != nil {
		site.HanifaLogo, _ = r.str(so, "hanifaLogo", "site.hanifaLogo")
		site.HeroNote, _ = r.str(so, "heroNote", "site.heroNote")
		site.TelegramIcon, _ = r.str(so, "telegramIcon", "site.telegramIcon")
		site.TelegramLink, _ = r.str(so, "telegramLink", "site.telegramLink")
		site.FooterNote, _ = r.str(so, "footerNote", "site.footerNote")
		site.BrandsOrder, _ = r.strings(so, "brandsOrder", "site.brandsOrder")
	}

	brandsRaw, ok := doc.get("brands")
	if !ok {
		r.issues.add("brands", "required")
		return site, nil
	}
	bo := r.object(brandsRaw, "brands")
	if bo == nil {
		return site, nil
	}

	brands := make([]brandInput, 0, len(bo.keys))
	for _, key := range bo.keys {
		path := join("brands", key)
		o := r.object(bo.vals[key], path)
		if o == nil {
			continue
		}
		brands = append(brands, r.brand(key, o, path))
	}
	return site, brands
}

func (r *reader) brand(key string, o *object, path string) brandInput {
	b := brandInput{key: key}
	b.brandLogo, _ = r.str(o, "brandLogo", join(path, "brandLogo"))
	b.homeLogoBase, _ = r.str(o, "homeLogoBase", join(path, "homeLogoBase"))
	b.homeLogoHover, _ = r.str(o, "homeLogoHover", join(path, "homeLogoHover"))

	itemsPath := join(path, "items")
	raw, ok := o.get("items")
	if !ok {
		return b
	}

	switch kindOf(raw) {
	case kindArray:
		elems, err := decodeArray(raw)
		if err != nil {
			r.issues.add(itemsPath, "invalid array: %v", err)
			return b
		}
		for i, e := range elems {
			p := join(itemsPath, strconv.Itoa(i))
			if io := r.object(e, p); io != nil {
				b.items = append(b.items, r.item(io, p))
			}
		}
	case kindObject:
		// Legacy shape: items keyed by slug. Key order is item order.
		dict := r.object(raw, itemsPath)
		if dict == nil {
			return b
		}
		for _, k := range dict.keys {
			p := join(itemsPath, k)
			io := r.object(dict.vals[k], p)
			if io == nil {
				continue
			}
			it := r.item(io, p)
			if strings.TrimSpace(it.name) == "" {
				it.name = slug.ToName(k)
			}
			if strings.TrimSpace(it.slug) == "" {
				it.slug = k
			}
			b.items = append(b.items, it)
		}
	default:
		r.issues.add(itemsPath, "expected array or object, received %s", kindOf(raw))
	}
	return b
}

func (r *reader) item(o *object, path string) itemInput {
	var it itemInput
	it.id, it.hasID = r.id(o, "id", join(path, "id"))
	it.name, _ = r.str(o, "name", join(path, "name"))
	it.slug, _ = r.str(o, "slug", join(path, "slug"))
	it.baseImage, _ = r.str(o, "baseImage", join(path, "baseImage"))
	it.hoverImage, _ = r.str(o, "hoverImage", join(path, "hoverImage"))
	it.wbLink, _ = r.str(o, "wbLink", join(path, "wbLink"))

	ap := join(path, "article")
	if ao := r.optObject(o, "article", ap); ao != nil {
		it.article = r.article(ao, ap)
	}
	return it
}

func (r *reader) article(ao *object, ap string) articleInput {
	var a articleInput
	a.blocks, _ = r.strings(ao, "blocks", join(ap, "blocks"))
	a.images, _ = r.strings(ao, "images", join(ap, "images"))
	a.wbLink, _ = r.str(ao, "wbLink", join(ap, "wbLink"))
	a.toc1, _ = r.str(ao, "tocBefore1", join(ap, "tocBefore1"))
	a.toc2, _ = r.str(ao, "tocBefore2", join(ap, "tocBefore2"))
	a.toc5, _ = r.str(ao, "tocBefore5", join(ap, "tocBefore5"))
	a.toc6, _ = r.str(ao, "tocBefore6", join(ap, "tocBefore6"))
	return a
}

// model pads blocks and images to models.ArticleSlots. wbLink is the
// link to use when the article has none of its own.
func (a articleInput) model(wbLink string) models.Article {
	if a.wbLink != "" {
		wbLink = a.wbLink
	}
	return models.Article{
		Blocks:     pad(a.blocks, models.ArticleSlots),
		Images:     pad(a.images, models.ArticleSlots),
		WBLink:     wbLink,
		TocBefore1: a.toc1,
		TocBefore2: a.toc2,
		TocBefore5: a.toc5,
		TocBefore6: a.toc6,
	}
}

func normalizeBrand(in brandInput) models.Brand {
	b := models.Brand{
		BrandLogo:     in.brandLogo,
		HomeLogoBase:  in.homeLogoBase,
		HomeLogoHover: in.homeLogoHover,
		Items:         make([]models.Item, 0, len(in.items)),
	}

	used := make(map[string]bool, len(in.items))
	for idx, it := range in.items {
		name := it.name
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Item %d", idx+1)
		}
		base := it.slug
		if strings.TrimSpace(base) == "" {
			base = name
		}
		s := UniqueSlug(base, used, fmt.Sprintf("%s-%d", in.key, idx+1))

		// A present id is kept even when empty; only a missing one is made up.
		id := it.id
		if !it.hasID {
			id = fmt.Sprintf("%s-%d", s, idx+1)
		}

		b.Items = append(b.Items, models.Item{
			ID:         id,
			Name:       name,
			Slug:       s,
			BaseImage:  it.baseImage,
			HoverImage: it.hoverImage,
			WBLink:     it.wbLink,
			Article:    it.article.model(it.wbLink),
		})
	}
	return b
}

// UniqueSlug slugifies base (or fallback when base has nothing usable) and
// appends -2, -3, ... until the result is not in taken. The result is
// recorded in taken.
func UniqueSlug(base string, taken map[string]bool, fallback string) string {
	clean := slug.Make(base)
	if clean == "" {
		clean = slug.Make(fallback)
	}
	if clean == "" {
		clean = fallback
	}
	candidate := clean
	for n := 2; candidate == "" || taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", clean, n)
	}
	taken[candidate] = true
	return candidate
}

// pad returns a copy of s with at least n entries; it never truncates.
func pad(s []string, n int) []string {
	size := len(s)
	if size < n {
		size = n
	}
	out := make([]string, size)
	copy(out, s)
	return out
}
