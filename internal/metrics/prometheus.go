package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TrainingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "naivebayes_trainings_total",
			Help: "Total number of training requests forwarded to the backend",
		},
		[]string{"status"},
	)

	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "naivebayes_classifications_total",
			Help: "Total number of classify requests forwarded to the backend",
		},
		[]string{"status"},
	)

	DatasetRowsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "naivebayes_dataset_rows_ingested_total",
			Help: "Total dataset rows persisted by the ingestion pipeline",
		},
	)

	DatasetRowsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "naivebayes_dataset_rows_skipped_total",
			Help: "Total dataset rows skipped during ingestion",
		},
		[]string{"reason"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "naivebayes_backend_request_duration_seconds",
			Help:    "Duration of requests to the external classification backend",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "naivebayes_cache_hits_total",
			Help: "Total read-cache hits",
		},
		[]string{"query"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "naivebayes_cache_misses_total",
			Help: "Total read-cache misses",
		},
		[]string{"query"},
	)
)

func Init() {
	prometheus.MustRegister(TrainingsTotal)
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(DatasetRowsIngested)
	prometheus.MustRegister(DatasetRowsSkipped)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
