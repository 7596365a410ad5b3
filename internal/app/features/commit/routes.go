package commit

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the commit endpoint on an admin-protected router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/commit", h.Commit)
}
