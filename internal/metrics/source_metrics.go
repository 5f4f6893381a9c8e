package metrics

import "github.com/prometheus/client_golang/prometheus"

// Source and cache metrics
var (
	SourceFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_fetches_total",
		Help:      "Upstream fetches by source and status",
	}, []string{"source", "status"})

	SourceRecords = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_records",
		Help:      "Events kept after normalization in the latest fetch",
	}, []string{"source"})

	WeightCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weight_cache_requests_total",
		Help:      "Tuned-weight cache lookups by result",
	}, []string{"result"})
)

// RecordSourceFetch records an upstream fetch. status is "success" or a datasource error code.
func RecordSourceFetch(source, status string, records int) {
	SourceFetchesTotal.WithLabelValues(source, status).Inc()
	if status == "success" {
		SourceRecords.WithLabelValues(source).Set(float64(records))
	}
}

// RecordWeightCacheHit records a tuned-weight cache hit.
func RecordWeightCacheHit() {
	WeightCacheRequestsTotal.WithLabelValues("hit").Inc()
}

// RecordWeightCacheMiss records a tuned-weight cache miss.
func RecordWeightCacheMiss() {
	WeightCacheRequestsTotal.WithLabelValues("miss").Inc()
}
