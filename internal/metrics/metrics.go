// Package metrics defines the Prometheus collectors exported by nautwatch.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nautwatch"

// Metrics holds every collector, registered on its own registry so tests
// can build independent instances.
type Metrics struct {
	Registry *prometheus.Registry

	FSEvents       *prometheus.CounterVec
	WatchErrors    prometheus.Counter
	Debounced      prometheus.Counter
	Candidates     *prometheus.CounterVec
	DedupRejected  prometheus.Counter
	Registrations  *prometheus.CounterVec
	InFlight       prometheus.Gauge
	PendingTimers  prometheus.Gauge
	APIRequests    *prometheus.CounterVec
	APIDuration    *prometheus.HistogramVec
	NotifyFailures prometheus.Counter
	WatchedDirs    prometheus.Gauge
	Redactions     *prometheus.CounterVec
}

// New creates and registers all collectors, plus Go runtime and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		FSEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fs_events_total",
			Help:      "Raw filesystem events received, by operation.",
		}, []string{"op"}),
		WatchErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_errors_total",
			Help:      "Errors reported by the filesystem watcher.",
		}),
		Debounced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounced_paths_total",
			Help:      "Paths delivered to the classifier after the quiet period.",
		}),
		Candidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Classifier results, by rule (project_dir, concept_file, none).",
		}, []string{"rule"}),
		DedupRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_rejected_total",
			Help:      "Candidates dropped because the directory was in progress or registered.",
		}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Finished registration attempts, by outcome and reason.",
		}, []string{"outcome", "reason"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registrations_in_flight",
			Help:      "Registration attempts currently running.",
		}),
		PendingTimers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "debounce_pending_timers",
			Help:      "Paths waiting for their quiet period to elapse.",
		}),
		APIRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Tracking API requests, by operation and HTTP status (0 for transport errors).",
		}, []string{"operation", "status"}),
		APIDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Tracking API request latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		NotifyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Registration events that could not be published.",
		}),
		WatchedDirs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watched_directories",
			Help:      "Directories currently registered with the filesystem watcher.",
		}),
		Redactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concept_redactions_total",
			Help:      "Credentials removed from concept text before creation, by rule.",
		}, []string{"rule"}),
	}
}

// ObserveAPI records one tracking API call. status is 0 when no response
// was received.
func (m *Metrics) ObserveAPI(operation string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.APIDuration.WithLabelValues(operation).Observe(d.Seconds())
}
