package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	feedUploadsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_uploads_processed_total",
			Help: "Feed uploads run through the pipeline, by outcome.",
		},
		[]string{"outcome"},
	)

	feedUploadProcessingSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_upload_processing_seconds",
			Help:    "Wall time of one pipeline run, by outcome.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	feedImagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_images_fetched_total",
			Help: "Image fetch units, by result (stored/http_error/network_error/write_error).",
		},
		[]string{"result"},
	)

	feedStatusCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_status_cache_requests_total",
			Help: "Feed upload status lookups served from cache, by result (hit/miss/error).",
		},
		[]string{"result"},
	)

	feedDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_dispatches_total",
			Help: "Dispatch queue operations, by operation (enqueued/acked/requeued/dropped).",
		},
		[]string{"operation"},
	)

	feedQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_queue_depth",
			Help: "Dispatches waiting to be received, by queue.",
		},
		[]string{"queue"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			feedUploadsProcessed,
			feedUploadProcessingSeconds,
			feedImagesFetched,
			feedStatusCacheRequests,
			feedDispatches,
			feedQueueDepth,
		)
	})
}

func ObserveUploadProcessed(outcome string, elapsed time.Duration) {
	feedUploadsProcessed.WithLabelValues(outcome).Inc()
	feedUploadProcessingSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func IncImageFetch(result string) {
	feedImagesFetched.WithLabelValues(result).Inc()
}

func IncStatusCache(result string) {
	feedStatusCacheRequests.WithLabelValues(result).Inc()
}

func IncDispatch(operation string) {
	feedDispatches.WithLabelValues(operation).Inc()
}

func SetQueueDepth(queue string, depth int64) {
	feedQueueDepth.WithLabelValues(queue).Set(float64(depth))
}
