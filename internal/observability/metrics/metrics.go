// Package metrics holds the prometheus collectors of the server. Collectors
// are usable before registration; Register exposes them on a registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	GRPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "Total number of gRPC requests.",
		},
		[]string{"method", "code"},
	)

	GRPCRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MediaCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_created_total",
			Help: "Total number of protected media items created.",
		},
		[]string{"media_type", "origin"},
	)

	ClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_claims_total",
			Help: "Claim attempts by outcome.",
		},
		[]string{"outcome"},
	)

	FinalizesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_finalizes_total",
			Help: "Finalize calls by outcome.",
		},
		[]string{"outcome"},
	)

	ScreenshotEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_screenshot_events_total",
			Help: "Screenshot detections reported by clients.",
		},
		[]string{"allowed"},
	)

	ReaperDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_reaper_deleted_total",
			Help: "Media items soft-deleted by the expiry reaper.",
		},
	)
)

// Register registers every collector on reg with a constant service label.
func Register(reg prometheus.Registerer, serviceName string) error {
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, reg)
	for _, c := range []prometheus.Collector{
		GRPCRequestsTotal,
		GRPCRequestDurationSeconds,
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		MediaCreatedTotal,
		ClaimsTotal,
		FinalizesTotal,
		ScreenshotEventsTotal,
		ReaperDeletedTotal,
	} {
		if err := wrapped.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Outcome turns an operation error into a low-cardinality label value.
func Outcome(err error, reason func(error) string) string {
	if err == nil {
		return "ok"
	}
	return reason(err)
}
