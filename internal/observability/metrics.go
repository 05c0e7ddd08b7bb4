package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Fetch attempts per region. Watch for: one region stuck on "transport" or "envelope".
	FetchesTotal *prometheus.CounterVec

	// Upstream latency per fetch.
	FetchDuration *prometheus.HistogramVec

	// Collection cycles by outcome (success, empty, write_error).
	CyclesTotal *prometheus.CounterVec

	// Wall time of a whole cycle.
	CycleDuration prometheus.Histogram

	// Unix time of the last cycle that replaced the output file. Watch for: staleness > 2h.
	LastSuccessfulCycle prometheus.Gauge

	// Latest snapshot values per region.
	RegionScore *prometheus.GaugeVec
	RegionPM10  *prometheus.GaugeVec
	RegionPM25  *prometheus.GaugeVec

	// Aggregated groups dropped because a pollutant had no valid reading.
	DroppedGroupsTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airquality_fetches_total",
			Help: "Measurement API fetches by region and outcome",
		},
		[]string{"region", "outcome"},
	)
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airquality_fetch_duration_seconds",
			Help:    "Measurement API latency in seconds (per fetch)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airquality_cycles_total",
			Help: "Collection cycles by outcome",
		},
		[]string{"outcome"},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airquality_cycle_duration_seconds",
			Help:    "Collection cycle duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
	LastSuccessfulCycle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "airquality_last_successful_cycle_timestamp_seconds",
			Help: "Unix time of the last cycle that wrote snapshots",
		},
	)
	RegionScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "airquality_region_score",
			Help: "Composite score of the latest snapshot",
		},
		[]string{"region"},
	)
	RegionPM10 = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "airquality_region_pm10",
			Help: "PM10 of the latest snapshot (µg/m³)",
		},
		[]string{"region"},
	)
	RegionPM25 = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "airquality_region_pm25",
			Help: "PM2.5 of the latest snapshot (µg/m³)",
		},
		[]string{"region"},
	)
	DroppedGroupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "airquality_dropped_groups_total",
			Help: "Aggregated groups dropped for missing pollutant values",
		},
	)

	registry.MustRegister(
		FetchesTotal, FetchDuration,
		CyclesTotal, CycleDuration, LastSuccessfulCycle,
		RegionScore, RegionPM10, RegionPM25,
		DroppedGroupsTotal,
	)
}

// RecordSnapshot updates the per-region gauges.
func RecordSnapshot(region string, score, pm10, pm25 float64) {
	RegionScore.WithLabelValues(region).Set(score)
	RegionPM10.WithLabelValues(region).Set(pm10)
	RegionPM25.WithLabelValues(region).Set(pm25)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
