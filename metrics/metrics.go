// Package metrics instruments validation runs and module generation with
// Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "semtrace"

// Generation outcomes recorded by ObserveGeneration.
const (
	ResultSuccess          = "success"
	ResultUnknownGenerator = "unknown_generator"
	ResultUnknownTemplate  = "unknown_template"
	ResultError            = "error"
)

// UnknownGenerator is the generator label recorded for names that are not
// configured, keeping the label set bounded by the configuration.
const UnknownGenerator = "unknown"

// Recorder holds the collectors on a private registry so several recorders
// can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	validationRuns     prometheus.Counter
	validationFailures prometheus.Counter
	validationIssues   *prometheus.CounterVec
	validationDuration prometheus.Histogram
	generations        *prometheus.CounterVec
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		validationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_runs_total",
			Help:      "Completed validation runs.",
		}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_scan_failures_total",
			Help:      "Validation runs aborted because the documentation tree could not be read.",
		}),
		validationIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_issues_total",
			Help:      "Issues reported by validation runs.",
		}, []string{"severity", "category"}),
		validationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Wall time of validation runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Module generation attempts by generator and outcome.",
		}, []string{"generator", "result"}),
	}

	r.registry.MustRegister(
		r.validationRuns,
		r.validationFailures,
		r.validationIssues,
		r.validationDuration,
		r.generations,
	)
	return r
}

// IssueLabel identifies one issue for counting.
type IssueLabel struct {
	Severity string
	Category string
}

// ObserveValidation records a completed run.
func (r *Recorder) ObserveValidation(issues []IssueLabel, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.validationRuns.Inc()
	r.validationDuration.Observe(elapsed.Seconds())
	for _, i := range issues {
		r.validationIssues.WithLabelValues(i.Severity, i.Category).Inc()
	}
}

// ObserveScanFailure records a run aborted by a scan error.
func (r *Recorder) ObserveScanFailure() {
	if r == nil {
		return
	}
	r.validationFailures.Inc()
}

// ObserveGeneration records one generate call.
func (r *Recorder) ObserveGeneration(generator, result string) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(generator, result).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
