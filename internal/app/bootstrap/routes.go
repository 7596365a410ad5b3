// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	catalogfeature "github.com/dalemusser/stratacatalog/internal/app/features/catalog"
	commitfeature "github.com/dalemusser/stratacatalog/internal/app/features/commit"
	errorsfeature "github.com/dalemusser/stratacatalog/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratacatalog/internal/app/features/health"
	registryfilefeature "github.com/dalemusser/stratacatalog/internal/app/features/registryfile"
	revisionsfeature "github.com/dalemusser/stratacatalog/internal/app/features/revisions"
	signfeature "github.com/dalemusser/stratacatalog/internal/app/features/sign"
	uploadsfeature "github.com/dalemusser/stratacatalog/internal/app/features/uploads"
	"github.com/dalemusser/stratacatalog/internal/app/system/apicors"
	"github.com/dalemusser/stratacatalog/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Route groups:
//   - /registry.json, /CONTENT/registry.json: the published document (public)
//   - /api/catalog: read-only catalog views over the registry store (public)
//   - /api/admin: sign, commit and revisions behind the admin token
//   - /api/uploads: PUT target for locally signed uploads (token in the URL)
//   - /health, /ready, /livez, /metrics: probes and Prometheus
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	store := deps.Publisher.Store()

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(appCfg.HTTPTimeout))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// ─────────────────────────────────────────────────────────────────────────────
	// Public registry and catalog
	// ─────────────────────────────────────────────────────────────────────────────

	registryfilefeature.MountRoutes(r, registryfilefeature.NewHandler(deps.Publisher, logger))

	catalogHandler := catalogfeature.NewHandler(store, deps.FileStorage, logger)
	if deps.FileStorage != nil {
		catalogHandler.WithContent(deps.FileStorage)
	}
	r.Mount("/api/catalog", catalogfeature.Routes(catalogHandler))

	// ─────────────────────────────────────────────────────────────────────────────
	// Admin API
	// Admin token auth + permissive CORS (the editor runs on another origin).
	// ─────────────────────────────────────────────────────────────────────────────

	adminCORS := apicors.Middleware()
	if len(appCfg.APICORSOrigins) > 0 {
		adminCORS = apicors.MiddlewareWithOrigins(appCfg.APICORSOrigins...)
	}
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminCORS)
		r.Use(auth.AdminToken(appCfg.AdminToken, appCfg.AdminTokenHash, logger))

		signfeature.MountRoutes(r, signfeature.NewHandler(deps.Signer, deps.Metrics, logger))
		commitfeature.MountRoutes(r, commitfeature.NewHandler(deps.Publisher, appCfg.RegistryMaxBytes, logger))
		revisionsfeature.MountRoutes(r, revisionsfeature.NewHandler(deps.Revisions, logger))
	})

	// Uploads signed by this service come back here; S3 uploads go straight to the bucket.
	if deps.LocalSigner != nil {
		uploadsHandler := uploadsfeature.NewHandler(deps.LocalSigner, deps.FileStorage, appCfg.MaxUploadBytes, deps.Metrics, logger)
		r.Route("/api/uploads", func(r chi.Router) {
			r.Use(adminCORS)
			r.Mount("/", uploadsfeature.Routes(uploadsHandler))
		})

		// Uploaded files (local storage only)
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, store, logger)
	if taskRunner != nil {
		healthHandler.WithTasks(taskRunner)
	}
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.Handle("/metrics", deps.Metrics.Handler())

	// JSON fallbacks for unmatched routes and methods
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	return r, nil
}
