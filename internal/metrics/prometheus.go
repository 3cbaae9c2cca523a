package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the viewer service
type Metrics struct {
	// Upload metrics
	UploadsReceived prometheus.Counter
	UploadsRejected prometheus.Counter
	UploadBytes     prometheus.Histogram

	// Analysis metrics
	AnalysesTotal        prometheus.Counter
	AnalysisFailures     prometheus.Counter
	ClipDuration         prometheus.Histogram
	SpectrogramsComputed prometheus.Counter
	PitchTracksComputed  prometheus.Counter
	TiersRendered        prometheus.Histogram

	// Render metrics
	RenderDuration prometheus.Histogram
	FigureBytes    prometheus.Histogram

	// Script metrics
	ScriptRuns     prometheus.Counter
	ScriptFailures prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Upload metrics
		UploadsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praatview_uploads_received_total",
			Help: "Total number of file uploads received",
		}),
		UploadsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praatview_uploads_rejected_total",
			Help: "Total number of uploads rejected (oversize, empty or malformed)",
		}),
		UploadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "praatview_upload_bytes",
			Help:    "Size of uploaded audio files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to ~256MB
		}),

		// Analysis metrics
		AnalysesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praatview_analyses_total",
			Help: "Total number of analysis pipelines executed",
		}),
		AnalysisFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praatview_analysis_failures_total",
			Help: "Total number of failed analysis pipelines",
		}),
		ClipDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "praatview_clip_duration_seconds",
			Help:    "Duration of analyzed audio clips",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12), // 0.25s to ~17 minutes
		}),
		SpectrogramsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praatview_spectrograms_computed_total",
			Help: "Total number of spectrograms computed",
		}),
		PitchTracksComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praatview_pitch_tracks_computed_total",
			Help: "Total number of pitch tracks computed",
		}),
		TiersRendered: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "praatview_tiers_rendered",
			Help:    "Number of annotation tiers per rendered figure",
			Buckets: prometheus.LinearBuckets(0, 1, 11), // 0 to 10 tiers
		}),

		// Render metrics
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "praatview_render_duration_seconds",
			Help:    "Time spent producing one figure",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		FigureBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "praatview_figure_bytes",
			Help:    "Size of rendered PNG figures in bytes",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 12), // 4KB to ~16MB
		}),

		// Script metrics
		ScriptRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praatview_script_runs_total",
			Help: "Total number of user scripts executed",
		}),
		ScriptFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "praatview_script_failures_total",
			Help: "Total number of user scripts that failed",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "praatview_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "praatview_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "praatview_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordUpload records a received upload and its size
func (m *Metrics) RecordUpload(sizeBytes int64) {
	m.UploadsReceived.Inc()
	m.UploadBytes.Observe(float64(sizeBytes))
}

// RecordUploadRejected increments the rejected uploads counter
func (m *Metrics) RecordUploadRejected() {
	m.UploadsRejected.Inc()
}

// RecordAnalysis records a completed analysis pipeline
func (m *Metrics) RecordAnalysis(clipDurationSeconds float64, spectrogram, pitch bool, numTiers int) {
	m.AnalysesTotal.Inc()
	m.ClipDuration.Observe(clipDurationSeconds)
	if spectrogram {
		m.SpectrogramsComputed.Inc()
	}
	if pitch {
		m.PitchTracksComputed.Inc()
	}
	m.TiersRendered.Observe(float64(numTiers))
}

// RecordAnalysisFailure increments the failed analyses counter
func (m *Metrics) RecordAnalysisFailure() {
	m.AnalysisFailures.Inc()
}

// RecordRender records figure rendering time and output size
func (m *Metrics) RecordRender(durationSeconds float64, figureBytes int) {
	m.RenderDuration.Observe(durationSeconds)
	m.FigureBytes.Observe(float64(figureBytes))
}

// RecordScriptRun records a script execution and whether it failed
func (m *Metrics) RecordScriptRun(failed bool) {
	m.ScriptRuns.Inc()
	if failed {
		m.ScriptFailures.Inc()
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
