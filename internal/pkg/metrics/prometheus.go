package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the client-side collectors. It is separate from the default registry so
// a session only exposes what it measures.
var Registry = prometheus.NewRegistry()

var (
	remoteRequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizrec",
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Total number of requests issued to the recommendation service",
		},
		[]string{"operation", "outcome"},
	)

	remoteRequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bizrec",
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Recommendation service request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	supersededTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizrec",
			Subsystem: "fence",
			Name:      "superseded_total",
			Help:      "Responses discarded because a newer request was issued",
		},
		[]string{"operation"},
	)

	busyRejectionsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: "bizrec",
			Subsystem: "repository",
			Name:      "busy_rejections_total",
			Help:      "Mutations rejected because another mutation was in flight",
		},
	)

	cachedBusinesses = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bizrec",
			Subsystem: "repository",
			Name:      "cached_businesses",
			Help:      "Number of businesses in the last published list",
		},
	)

	trainingJobs = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizrec",
			Subsystem: "training",
			Name:      "jobs_total",
			Help:      "Training jobs by terminal state",
		},
		[]string{"state"},
	)
)

// RecordRemoteRequest records one completed remote call
func RecordRemoteRequest(operation, outcome string, duration time.Duration) {
	remoteRequestsTotal.WithLabelValues(operation, outcome).Inc()
	remoteRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSuperseded records a fenced-out response
func RecordSuperseded(operation string) {
	supersededTotal.WithLabelValues(operation).Inc()
}

// RecordBusyRejection records a single-flight rejection
func RecordBusyRejection() {
	busyRejectionsTotal.Inc()
}

// SetCachedBusinesses sets the gauge for the published business list size
func SetCachedBusinesses(count int) {
	cachedBusinesses.Set(float64(count))
}

// RecordTrainingJob records a training job reaching a terminal state
func RecordTrainingJob(state string) {
	trainingJobs.WithLabelValues(state).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string) error {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
