// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/registryclient"
	"github.com/dalemusser/stratacatalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacatalog/internal/app/system/tasks"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Pinger checks database connectivity. *mongo.Client implements it.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// RegistryState reports the server's loaded registry.
// *registryclient.Store implements it.
type RegistryState interface {
	Snapshot() registryclient.State
}

// TaskReporter lists background job state. *tasks.Runner implements it.
type TaskReporter interface {
	Status() []tasks.JobStatus
}

// Handler provides health check endpoints.
type Handler struct {
	db       Pinger
	registry RegistryState
	tasks    TaskReporter
	logger   *zap.Logger
}

// NewHandler creates a new health check Handler. registry may be nil.
func NewHandler(db Pinger, registry RegistryState, logger *zap.Logger) *Handler {
	return &Handler{db: db, registry: registry, logger: logger}
}

// WithTasks adds background job state to the full check. Job failures are
// reported but do not degrade the status.
func (h *Handler) WithTasks(t TaskReporter) *Handler {
	h.tasks = t
	return h
}

// Response represents the health check response.
type Response struct {
	Status      string            `json:"status"`
	Services    map[string]string `json:"services,omitempty"`
	ChangeToken string            `json:"changeToken,omitempty"`
	Items       int               `json:"items,omitempty"`
	Tasks       []tasks.JobStatus `json:"tasks,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds /ready and /livez endpoints directly on the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.db.Ping(ctx, readpref.Primary())
}

// Check reports database connectivity and registry state.
//
// A registry that has never been published is "empty", not a failure;
// the service is degraded only when mongo is down or the last registry
// load failed.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:   "ok",
		Services: make(map[string]string),
	}

	if err := h.ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		resp.Services["mongodb"] = "ok"
	}

	if h.registry != nil {
		st := h.registry.Snapshot()
		switch {
		case st.Registry != nil:
			resp.Services["registry"] = "ok"
			resp.ChangeToken = st.ChangeToken
			resp.Items = st.Registry.ItemCount()
		case st.Loading:
			resp.Services["registry"] = "loading"
		case st.Err != nil:
			resp.Status = "degraded"
			resp.Services["registry"] = "unavailable"
		default:
			resp.Services["registry"] = "empty"
		}
	}

	if h.tasks != nil {
		resp.Tasks = h.tasks.Status()
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready checks if the service is ready to accept requests.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live checks if the service is alive.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
