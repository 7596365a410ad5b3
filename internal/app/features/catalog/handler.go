// Package catalog serves read-only JSON views of the loaded registry.
//
// Endpoints:
//   - GET /api/catalog                             - Home page view
//   - GET /api/catalog/brands/{brand}              - Brand grid
//   - GET /api/catalog/brands/{brand}/items/{slug} - Item article page
//
// An item whose registry article is empty takes its article from the
// content file at CONTENT/SKU PAGE/{slug}/meta.json when a ContentReader
// is configured.
package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/dalemusser/stratacatalog/internal/app/registry"
	"github.com/dalemusser/stratacatalog/internal/app/registryclient"
	"github.com/dalemusser/stratacatalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacatalog/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Snapshotter exposes the current registry. *registryclient.Store implements it.
type Snapshotter interface {
	Snapshot() registryclient.State
}

// AssetURLs maps a stored asset key to a public URL. storage.Store implements it.
type AssetURLs interface {
	URL(path string) string
}

// ContentReader reads stored objects. storage.Store implements it.
type ContentReader interface {
	GetBytes(ctx context.Context, path string) ([]byte, error)
}

// Handler serves catalog views.
type Handler struct {
	store   Snapshotter
	assets  AssetURLs
	content ContentReader
	logger  *zap.Logger

	mu        sync.Mutex
	metaToken string // change-token the cached content files belong to
	meta      map[string]*registry.ItemMeta
}

// NewHandler creates a catalog Handler. assets may be nil, in which case
// relative asset keys are returned as root-relative paths.
func NewHandler(store Snapshotter, assets AssetURLs, logger *zap.Logger) *Handler {
	return &Handler{store: store, assets: assets, logger: logger}
}

// WithContent enables the content-file fallback for items without an article.
func (h *Handler) WithContent(content ContentReader) *Handler {
	h.content = content
	return h
}

// asset resolves a reference. Absolute http(s) URLs pass through.
func (h *Handler) asset(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || registry.IsHTTPURL(ref) {
		return ref
	}
	if h.assets == nil {
		return registry.ResolveAsset("", ref)
	}
	return h.assets.URL(strings.TrimLeft(ref, "/"))
}

// current returns the loaded registry or writes a 503.
func (h *Handler) current(w http.ResponseWriter) (registryclient.State, bool) {
	st := h.store.Snapshot()
	if st.Registry != nil {
		return st, true
	}
	switch {
	case st.Loading:
		w.Header().Set("Retry-After", "1")
		jsonutil.Error(w, http.StatusServiceUnavailable, "registry loading")
	case st.Err != nil:
		jsonutil.ErrorDetail(w, http.StatusServiceUnavailable, "registry unavailable", st.Err.Error())
	default:
		jsonutil.Error(w, http.StatusServiceUnavailable, "registry not loaded")
	}
	return st, false
}

// Home handles GET /api/catalog.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w)
	if !ok {
		return
	}
	reg := st.Registry

	view := HomeView{
		Site: SiteView{
			HanifaLogo:   h.asset(reg.Site.HanifaLogo),
			HeroNote:     reg.Site.HeroNote,
			TelegramIcon: h.asset(reg.Site.TelegramIcon),
			TelegramLink: reg.Site.TelegramLink,
			FooterNote:   reg.Site.FooterNote,
		},
		Brands:      []HomeBrand{},
		ChangeToken: st.ChangeToken,
	}
	for _, key := range registry.HomeOrder(reg) {
		b, _ := reg.Brands.Get(key)
		view.Brands = append(view.Brands, HomeBrand{
			Key:           key,
			HomeLogoBase:  h.asset(b.HomeLogoBase),
			HomeLogoHover: h.asset(b.HomeLogoHover),
			ItemCount:     len(b.Items),
		})
	}
	jsonutil.OK(w, view)
}

// Brand handles GET /api/catalog/brands/{brand}.
// The brand key is matched case-insensitively.
func (h *Handler) Brand(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w)
	if !ok {
		return
	}
	key, b, found := st.Registry.Brands.Find(chi.URLParam(r, "brand"))
	if !found {
		jsonutil.NotFound(w, "brand not found")
		return
	}

	view := BrandView{Key: key, BrandLogo: h.asset(b.BrandLogo), Items: make([]ItemCard, 0, len(b.Items))}
	for _, it := range b.Items {
		view.Items = append(view.Items, ItemCard{
			ID:         it.ID,
			Name:       it.Name,
			Slug:       it.Slug,
			BaseImage:  h.asset(it.BaseImage),
			HoverImage: h.asset(it.HoverImage),
		})
	}
	jsonutil.OK(w, view)
}

// Item handles GET /api/catalog/brands/{brand}/items/{slug}.
// The slug is matched exactly, then against the slugified item name.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w)
	if !ok {
		return
	}
	key, b, found := st.Registry.Brands.Find(chi.URLParam(r, "brand"))
	if !found {
		jsonutil.NotFound(w, "brand not found")
		return
	}
	it, found := registry.FindItem(b, chi.URLParam(r, "slug"))
	if !found {
		jsonutil.NotFound(w, "item not found")
		return
	}

	a := it.Article
	if a.IsEmpty() && h.content != nil {
		contentSlug := it.Slug
		if strings.TrimSpace(contentSlug) == "" {
			contentSlug = chi.URLParam(r, "slug")
		}
		meta, err := h.itemMeta(r.Context(), st.ChangeToken, contentSlug)
		switch {
		case err == nil:
			a = meta.Article
		case errors.Is(err, storage.ErrNotFound):
			jsonutil.NotFound(w, "content not found")
			return
		case errors.Is(err, registry.ErrMalformedContent):
			h.logger.Warn("malformed item content",
				zap.String("path", registry.MetaPath(contentSlug)), zap.Error(err))
			jsonutil.ErrorDetail(w, http.StatusBadGateway, "malformed content", err.Error())
			return
		default:
			h.logger.Error("item content read failed",
				zap.String("path", registry.MetaPath(contentSlug)), zap.Error(err))
			jsonutil.Error(w, http.StatusServiceUnavailable, "content unavailable")
			return
		}
	}
	jsonutil.OK(w, h.itemView(key, b, it, a))
}

// itemMeta returns the parsed content file for slug. Parsed files are
// cached until the registry change-token moves.
func (h *Handler) itemMeta(ctx context.Context, token, slug string) (*registry.ItemMeta, error) {
	path := registry.MetaPath(slug)

	h.mu.Lock()
	if h.meta == nil || h.metaToken != token {
		h.meta = make(map[string]*registry.ItemMeta)
		h.metaToken = token
	}
	m, ok := h.meta[path]
	h.mu.Unlock()
	if ok {
		return m, nil
	}

	raw, err := h.content.GetBytes(ctx, path)
	if err != nil {
		return nil, err
	}
	m, err = registry.ParseItemMeta(raw)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.metaToken == token {
		h.meta[path] = m
	}
	h.mu.Unlock()
	return m, nil
}

func (h *Handler) itemView(key string, b *models.Brand, it *models.Item, a models.Article) ItemView {
	link := a.WBLink
	if link == "" {
		link = it.PurchaseLink()
	}
	view := ItemView{
		Brand:        key,
		BrandLogo:    h.asset(b.BrandLogo),
		ID:           it.ID,
		Name:         it.Name,
		Slug:         it.Slug,
		LeadImage:    h.asset(a.Image(0)),
		Sections:     make([]Section, 0, models.ArticleSlots),
		PurchaseLink: link,
	}
	// Image 0 leads the page; body images 1-6 follow blocks 0-5.
	for i := 0; i < models.ArticleSlots; i++ {
		view.Sections = append(view.Sections, Section{
			Heading: a.TocBefore(i),
			Text:    a.Block(i),
			Image:   h.asset(a.Image(i + 1)),
		})
	}
	return view
}
