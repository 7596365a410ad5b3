// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle.
// Each function is called in order by app.Run, from configuration
// loading through DB setup, one-time startup work, HTTP handler
// construction, and finally graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratacatalog", // used only for logging/diagnostics
	LoadConfig:     LoadConfig,      // load core + app config
	ValidateConfig: ValidateConfig,  // MongoDB URI, backends, admin credential
	ConnectDB:      ConnectDB,       // MongoDB, S3, storage, registry backend
	EnsureSchema:   EnsureSchema,    // collection validators + indexes
	Startup:        Startup,         // load the registry, start background tasks
	BuildHandler:   BuildHandler,    // build the HTTP router + middleware stack
	Shutdown:       Shutdown,        // stop tasks, disconnect MongoDB
}
