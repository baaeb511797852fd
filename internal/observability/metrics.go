package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// Tcorr resolution pipeline.
type Metrics struct {
	ScenesConsumed  prometheus.Counter
	RecordsProduced prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Coefficient resolution metrics.
	TcorrResolved *prometheus.CounterVec // labels: source={scene,month,default,user}

	// Compute platform metrics.
	PlatformRequests    *prometheus.CounterVec   // labels: endpoint={evaluate,tables}, outcome={success,error}
	PlatformAPIDuration *prometheus.HistogramVec // labels: endpoint={evaluate,tables}
	EvalCache           *prometheus.CounterVec   // labels: result={hit,miss}
	PlatformEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScenesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "scenes_consumed_total",
			Help:      "Total scene events read from the source topic.",
		}),
		RecordsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "records_produced_total",
			Help:      "Total Tcorr records written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "transform_errors_total",
			Help:      "Total scene events that failed parsing or transformation.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ssebop_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ssebop_etl",
			Name:      "batch_size",
			Help:      "Number of scene events per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ssebop_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		TcorrResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "tcorr_resolved_total",
			Help:      "Resolved coefficients by fallback tier.",
		}, []string{"source"}),
		PlatformRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "platform_requests_total",
			Help:      "Compute platform API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		PlatformAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ssebop_etl",
			Name:      "platform_api_duration_seconds",
			Help:      "Compute platform API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		EvalCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssebop_etl",
			Name:      "eval_cache_total",
			Help:      "Evaluation cache lookups by result.",
		}, []string{"result"}),
		PlatformEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ssebop_etl",
			Name:      "platform_enabled",
			Help:      "1 when scene statistics enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ScenesConsumed,
		m.RecordsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.TcorrResolved,
		m.PlatformRequests,
		m.PlatformAPIDuration,
		m.EvalCache,
		m.PlatformEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ScenesConsumed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "scenes_consumed_total"}),
		RecordsProduced:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "records_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ssebop_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ssebop_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ssebop_etl", Name: "batch_processing_duration_seconds"}),
		TcorrResolved:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "tcorr_resolved_total"}, []string{"source"}),
		PlatformRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "platform_requests_total"}, []string{"endpoint", "outcome"}),
		PlatformAPIDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "ssebop_etl", Name: "platform_api_duration_seconds"}, []string{"endpoint"}),
		EvalCache:               prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "ssebop_etl", Name: "eval_cache_total"}, []string{"result"}),
		PlatformEnabled:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ssebop_etl", Name: "platform_enabled"}),
	}
}
