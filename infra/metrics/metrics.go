// Package metrics exposes timeline store telemetry to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CrestNiraj12/twiddle/domain"
)

// Recorder implements timeline.Recorder on a private registry.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	posts      prometheus.Gauge
}

// NewRecorder creates a Recorder with Go and process collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twiddle_store_operations_total",
			Help: "Timeline store operations by outcome.",
		}, []string{"op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "twiddle_store_operation_seconds",
			Help:    "Timeline store operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		posts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "twiddle_store_posts",
			Help: "Posts currently held by the timeline store.",
		}),
	}

	r.registry.MustRegister(collectors.NewGoCollector())
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.registry.MustRegister(r.operations, r.latency, r.posts)
	return r
}

// ObserveOperation counts one operation and records its latency.
func (r *Recorder) ObserveOperation(op string, elapsed time.Duration, err error) {
	r.operations.WithLabelValues(op, result(err)).Inc()
	r.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetStoredPosts updates the stored-posts gauge.
func (r *Recorder) SetStoredPosts(n int) {
	r.posts.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStalePage):
		return "stale"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}
