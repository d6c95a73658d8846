package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecasting pipeline.
type Metrics struct {
	RecordsConsumed    prometheus.Counter
	RecordsSkipped     prometheus.Counter
	ForecastsPublished prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Calibration metrics.
	CalibrationRuns      prometheus.Counter
	CalibrationProposals *prometheus.CounterVec // labels: kind={day_override,spillover_decay}, outcome={applied,rejected}
	CalibrationDuration  prometheus.Histogram
	SnapshotSavedAt      prometheus.Gauge

	// Weather enrichment metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	WeatherCache       *prometheus.CounterVec // labels: result={hit,miss}
	WeatherAPIDuration prometheus.Histogram
	WeatherEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parking_forecast",
			Name:      "records_consumed_total",
			Help:      "Total revenue records read from the source topic.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parking_forecast",
			Name:      "records_skipped_total",
			Help:      "Total malformed or rejected records.",
		}),
		ForecastsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parking_forecast",
			Name:      "forecasts_published_total",
			Help:      "Total forecasts written to the sink topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parking_forecast",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parking_forecast",
			Name:      "batch_size",
			Help:      "Number of records per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parking_forecast",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete ingest-calibrate-forecast cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		CalibrationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parking_forecast",
			Name:      "calibration_runs_total",
			Help:      "Total calibration passes over newly observed actuals.",
		}),
		CalibrationProposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking_forecast",
			Name:      "calibration_proposals_total",
			Help:      "Coefficient revision proposals by kind and outcome.",
		}, []string{"kind", "outcome"}),
		CalibrationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parking_forecast",
			Name:      "calibration_duration_seconds",
			Help:      "Duration of one calibration pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SnapshotSavedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parking_forecast",
			Name:      "snapshot_saved_timestamp_seconds",
			Help:      "Unix time of the last persisted coefficient snapshot.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking_forecast",
			Name:      "weather_requests_total",
			Help:      "Weather API requests by outcome.",
		}, []string{"outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking_forecast",
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parking_forecast",
			Name:      "weather_api_duration_seconds",
			Help:      "OpenWeather API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WeatherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parking_forecast",
			Name:      "weather_enabled",
			Help:      "1 when weather enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsConsumed,
		m.RecordsSkipped,
		m.ForecastsPublished,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.CalibrationRuns,
		m.CalibrationProposals,
		m.CalibrationDuration,
		m.SnapshotSavedAt,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsConsumed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parking_forecast", Name: "records_consumed_total"}),
		RecordsSkipped:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parking_forecast", Name: "records_skipped_total"}),
		ForecastsPublished:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parking_forecast", Name: "forecasts_published_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "parking_forecast", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "parking_forecast", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "parking_forecast", Name: "batch_processing_duration_seconds"}),
		CalibrationRuns:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parking_forecast", Name: "calibration_runs_total"}),
		CalibrationProposals:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "parking_forecast", Name: "calibration_proposals_total"}, []string{"kind", "outcome"}),
		CalibrationDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "parking_forecast", Name: "calibration_duration_seconds"}),
		SnapshotSavedAt:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "parking_forecast", Name: "snapshot_saved_timestamp_seconds"}),
		WeatherRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "parking_forecast", Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "parking_forecast", Name: "weather_cache_total"}, []string{"result"}),
		WeatherAPIDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "parking_forecast", Name: "weather_api_duration_seconds"}),
		WeatherEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "parking_forecast", Name: "weather_enabled"}),
	}
}
