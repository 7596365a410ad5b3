package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the catalog views.
//
// When mounted at /api/catalog:
//   - GET /api/catalog
//   - GET /api/catalog/brands/{brand}
//   - GET /api/catalog/brands/{brand}/items/{slug}
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Home)
	r.Get("/brands/{brand}", h.Brand)
	r.Get("/brands/{brand}/items/{slug}", h.Item)
	return r
}
