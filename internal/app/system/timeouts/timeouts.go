// Package timeouts provides centralized timeout values for outbound registry calls.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing    = 2 * time.Second
	DefaultProbe   = 5 * time.Second
	DefaultRequest = 15 * time.Second
	DefaultUpload  = 2 * time.Minute
	DefaultCommit  = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping    = DefaultPing
	probe   = DefaultProbe
	request = DefaultRequest
	upload  = DefaultUpload
	commit  = DefaultCommit
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Probe returns the timeout for change-token HEAD probes.
func Probe() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return probe
}

// Request returns the timeout for registry fetches and signing calls.
func Request() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return request
}

// Upload returns the timeout for PUTs of asset bytes.
func Upload() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return upload
}

// Commit returns the timeout for registry commits.
func Commit() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return commit
}

// Config holds timeout configuration values. Zero fields keep the current value.
type Config struct {
	Ping    time.Duration
	Probe   time.Duration
	Request time.Duration
	Upload  time.Duration
	Commit  time.Duration
}

// Configure sets custom timeout values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Probe > 0 {
		probe = cfg.Probe
	}
	if cfg.Request > 0 {
		request = cfg.Request
	}
	if cfg.Upload > 0 {
		upload = cfg.Upload
	}
	if cfg.Commit > 0 {
		commit = cfg.Commit
	}
}

// Reset restores all timeouts to defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	probe = DefaultProbe
	request = DefaultRequest
	upload = DefaultUpload
	commit = DefaultCommit
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:    ping,
		Probe:   probe,
		Request: request,
		Upload:  upload,
		Commit:  commit,
	}
}

// WithTimeout creates a context with timeout and logs when the deadline is hit.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
