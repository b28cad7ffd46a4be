package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxprotest", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taxprotest", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	Reports = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxprotest", Name: "reports_total", Help: "Reports built, by outcome status."},
		[]string{"status"},
	)
	DatasetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "taxprotest", Name: "dataset_rows", Help: "Rows in the current dataset by disposition."},
		[]string{"kind"}, // kind: loaded|dropped_missing|dropped_invalid|dropped_area
	)
	DatasetReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxprotest", Name: "dataset_reloads_total", Help: "Dataset reload attempts."},
		[]string{"result"}, // result: ok|error
	)
	DatasetReloadLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "taxprotest", Name: "dataset_reload_duration_seconds",
			Help:    "Dataset reload duration seconds.",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxprotest", Name: "cache_events_total", Help: "Cache hits/misses/sets/errors."},
		[]string{"cache", "event"}, // event: hit|miss|set|error
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, Reports, DatasetRows, DatasetReloads, DatasetReloadLatency, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveReport(status string) { Reports.WithLabelValues(status).Inc() }

// ObserveReload records one reload attempt. On success the row gauges are
// replaced with the new dataset's counts.
func ObserveReload(dur time.Duration, err error, loaded, droppedMissing, droppedInvalid, droppedArea int) {
	DatasetReloadLatency.Observe(dur.Seconds())
	if err != nil {
		DatasetReloads.WithLabelValues("error").Inc()
		return
	}
	DatasetReloads.WithLabelValues("ok").Inc()
	DatasetRows.WithLabelValues("loaded").Set(float64(loaded))
	DatasetRows.WithLabelValues("dropped_missing").Set(float64(droppedMissing))
	DatasetRows.WithLabelValues("dropped_invalid").Set(float64(droppedInvalid))
	DatasetRows.WithLabelValues("dropped_area").Set(float64(droppedArea))
}

func ObserveCache(cache, event string) { // event: hit|miss|set|error
	CacheEvents.WithLabelValues(cache, event).Inc()
}
