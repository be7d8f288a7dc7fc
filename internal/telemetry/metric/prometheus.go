package metric

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "emplo"

// Outcome labels for identity service requests.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
)

// Registry holds all application metrics.
//
// A nil *Registry is valid and records nothing.
type Registry struct {
	registry *prometheus.Registry

	// Session metrics
	SessionTransitions *prometheus.CounterVec
	StaleResults       *prometheus.CounterVec

	// Identity service metrics
	IdentityRequests        *prometheus.CounterVec
	IdentityRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with every application metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions.",
		}, []string{"from", "to"}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "stale_results_total",
			Help:      "Operation results discarded because a newer operation started.",
		}, []string{"op"}),
		IdentityRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "requests_total",
			Help:      "Requests to the identity service by operation and outcome.",
		}, []string{"op", "outcome"}),
		IdentityRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "request_duration_seconds",
			Help:      "Identity service request latency.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
	}

	r.registry.MustRegister(
		r.SessionTransitions,
		r.StaleResults,
		r.IdentityRequests,
		r.IdentityRequestDuration,
	)
	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// ObserveTransition counts a session state transition.
func (r *Registry) ObserveTransition(from, to string) {
	if r == nil {
		return
	}
	r.SessionTransitions.WithLabelValues(from, to).Inc()
}

// ObserveStaleResult counts a discarded operation result.
func (r *Registry) ObserveStaleResult(op string) {
	if r == nil {
		return
	}
	r.StaleResults.WithLabelValues(op).Inc()
}

// ObserveRequest records one identity service call.
func (r *Registry) ObserveRequest(op, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.IdentityRequests.WithLabelValues(op, outcome).Inc()
	r.IdentityRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Register adds an extra collector to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	if r == nil {
		return nil
	}
	return r.registry.Register(c)
}

// Gatherer exposes the underlying registry for export and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current metrics to path in the text exposition
// format. The file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
