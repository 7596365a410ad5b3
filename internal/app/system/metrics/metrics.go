// Package metrics exposes Prometheus counters for the registry pipeline.
//
// All methods are safe on a nil *Metrics, so components can run without
// instrumentation (CLI, tests).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeConflict  = "conflict"
	OutcomeMalformed = "malformed"
	OutcomeInvalid   = "invalid"
)

// Metrics holds the registry counters.
type Metrics struct {
	gatherer prometheus.Gatherer

	loads         *prometheus.CounterVec
	candidates    *prometheus.CounterVec
	commits       *prometheus.CounterVec
	retries       prometheus.Counter
	uploadsSigned *prometheus.CounterVec
	uploadBytes   prometheus.Counter
	registryItems prometheus.Gauge
	jobRuns       *prometheus.CounterVec
	jobSeconds    *prometheus.HistogramVec
}

// New registers the counters with reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		loads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "loads_total",
			Help:      "Registry loads by outcome",
		}, []string{"outcome"}),
		candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "candidate_failures_total",
			Help:      "Registry candidate sources that failed during a load",
		}, []string{"reason"}),
		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "commits_total",
			Help:      "Registry commits by outcome",
		}, []string{"outcome"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "commit_retries_total",
			Help:      "Commits resubmitted after a change-token conflict",
		}),
		uploadsSigned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uploads",
			Name:      "signed_total",
			Help:      "Upload destinations signed, by signer",
		}, []string{"signer"}),
		uploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uploads",
			Name:      "received_bytes_total",
			Help:      "Bytes received through locally signed uploads",
		}),
		registryItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "items",
			Help:      "Items in the currently loaded registry",
		}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "runs_total",
			Help:      "Background job runs by job and outcome",
		}, []string{"job", "outcome"}),
		jobSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "run_seconds",
			Help:      "Background job run duration",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"job"}),
	}
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Load counts one registry load.
func (m *Metrics) Load(outcome string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(outcome).Inc()
}

// CandidateFailed counts one failed candidate source.
func (m *Metrics) CandidateFailed(reason string) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(reason).Inc()
}

// Commit counts one commit attempt.
func (m *Metrics) Commit(outcome string) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(outcome).Inc()
}

// CommitRetried counts one conflict retry.
func (m *Metrics) CommitRetried() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// UploadSigned counts one signed upload destination.
func (m *Metrics) UploadSigned(signer string) {
	if m == nil {
		return
	}
	m.uploadsSigned.WithLabelValues(signer).Inc()
}

// UploadReceived adds n bytes to the received upload total.
func (m *Metrics) UploadReceived(n int64) {
	if m == nil {
		return
	}
	m.uploadBytes.Add(float64(n))
}

// SetItems records the item count of the loaded registry.
func (m *Metrics) SetItems(n int) {
	if m == nil {
		return
	}
	m.registryItems.Set(float64(n))
}

// JobRun records one background job run.
func (m *Metrics) JobRun(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.jobRuns.WithLabelValues(name, outcome).Inc()
	m.jobSeconds.WithLabelValues(name).Observe(d.Seconds())
}
