package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shane01526/ElegantPraat/internal/config"
	"github.com/shane01526/ElegantPraat/internal/metrics"
	"github.com/shane01526/ElegantPraat/internal/script"
	"github.com/shane01526/ElegantPraat/internal/upload"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to disk.
const maxMultipartMemory = 8 << 20

// HTTPServer provides the viewer page and its API endpoints
type HTTPServer struct {
	server  *http.Server
	logger  *slog.Logger
	config  *config.Config
	metrics *metrics.Metrics
	uploads *upload.Store

	// Server state
	startTime      time.Time
	rendersServed  atomic.Uint64
	scriptRuns     atomic.Uint64
	requestsFailed atomic.Uint64
}

// NewHTTPServer creates the viewer HTTP server
func NewHTTPServer(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *HTTPServer {
	h := &HTTPServer{
		logger:    logger,
		config:    cfg,
		metrics:   m,
		uploads:   upload.NewStore(cfg.Upload),
		startTime: time.Now(),
	}

	r := mux.NewRouter()
	h.setupRoutes(r)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.GetReadTimeout(),
		WriteTimeout: cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures the HTTP routes
func (h *HTTPServer) setupRoutes(r *mux.Router) {
	// The single page UI
	r.HandleFunc("/", h.withMetrics("/", h.handleIndex)).Methods(http.MethodGet)

	// Rendering and analysis API
	r.HandleFunc("/api/render", h.withMetrics("/api/render", h.handleRender)).Methods(http.MethodPost)
	r.HandleFunc("/api/analyze", h.withMetrics("/api/analyze", h.handleAnalyze)).Methods(http.MethodPost)

	// Monitoring endpoints
	r.HandleFunc("/health", h.withMetrics("/health", h.handleHealth)).Methods(http.MethodGet)
	r.HandleFunc("/config", h.withMetrics("/config", h.handleConfig)).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats)).Methods(http.MethodGet)

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Capture the status code written by the handler
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
			h.requestsFailed.Add(1)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server...")

	return h.server.Shutdown(ctx)
}

// parseViewRequest reads the shared multipart fields of the render and
// analyze endpoints. The caller owns closing the returned files.
func (h *HTTPServer) parseViewRequest(r *http.Request, withScript bool) (*viewRequest, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, fmt.Errorf("malformed multipart form: %w", err)
	}

	wavFile, _, err := r.FormFile("wav")
	if err != nil {
		return nil, fmt.Errorf("missing required file field 'wav'")
	}

	req := &viewRequest{
		wav:             wavFile,
		showSpectrogram: parseFlag(r.FormValue("spectrogram")),
		showPitch:       parseFlag(r.FormValue("pitch")),
	}

	if gridFile, _, err := r.FormFile("textgrid"); err == nil {
		req.grid = gridFile
	}

	if withScript {
		req.scriptSource = strings.TrimSpace(r.FormValue("script"))
	}

	return req, nil
}

func parseFlag(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func (req *viewRequest) close() {
	req.wav.Close()
	if req.grid != nil {
		req.grid.Close()
	}
}

// handleRender implements POST /api/render: the figure as raw PNG
func (h *HTTPServer) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseViewRequest(r, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer req.close()

	result, err := h.runPipeline(*req)
	if err != nil {
		h.logger.Error("Render pipeline failed", slog.String("error", err.Error()))
		http.Error(w, "Failed to process the uploaded files", http.StatusUnprocessableEntity)
		return
	}
	h.rendersServed.Add(1)

	w.Header().Set("Content-Type", "image/png")
	w.Write(result.PNG)
}

// analyzeResponse is the JSON reply of POST /api/analyze
type analyzeResponse struct {
	Duration     float64 `json:"duration"`
	SampleRate   int     `json:"sample_rate"`
	Channels     int     `json:"channels"`
	NumTiers     int     `json:"num_tiers"`
	Image        string  `json:"image"` // base64 PNG
	ScriptOutput string  `json:"script_output,omitempty"`
	ScriptError  string  `json:"script_error,omitempty"`
}

// handleAnalyze implements POST /api/analyze: figure plus metadata and
// script output as JSON. Script failures land in script_error with a
// 200 status; only upload or analysis failures produce error statuses.
func (h *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseViewRequest(r, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer req.close()

	result, err := h.runPipeline(*req)
	if err != nil {
		h.logger.Error("Analyze pipeline failed", slog.String("error", err.Error()))
		http.Error(w, "Failed to process the uploaded files", http.StatusUnprocessableEntity)
		return
	}
	h.rendersServed.Add(1)
	if req.scriptSource != "" {
		h.scriptRuns.Add(1)
	}

	response := analyzeResponse{
		Duration:     result.Info.Duration,
		SampleRate:   result.Info.SampleRate,
		Channels:     result.Info.Channels,
		NumTiers:     result.NumTiers,
		Image:        base64.StdEncoding.EncodeToString(result.PNG),
		ScriptOutput: result.ScriptOutput,
		ScriptError:  result.ScriptError,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleIndex serves the single page UI
func (h *HTTPServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{DefaultScript: script.DefaultScript}); err != nil {
		h.logger.Error("Failed to render index page", slog.String("error", err.Error()))
	}
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "elegant-praat",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"http_server": map[string]interface{}{
				"status":          "running",
				"renders_served":  h.rendersServed.Load(),
				"script_runs":     h.scriptRuns.Load(),
				"requests_failed": h.requestsFailed.Load(),
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	sanitizedConfig := map[string]interface{}{
		"http": map[string]interface{}{
			"port":          h.config.HTTP.Port,
			"address":       h.config.HTTP.Address,
			"read_timeout":  h.config.HTTP.ReadTimeout,
			"write_timeout": h.config.HTTP.WriteTimeout,
		},
		"upload": map[string]interface{}{
			"max_wav_bytes":      h.config.Upload.MaxWAVBytes,
			"max_textgrid_bytes": h.config.Upload.MaxTextGridBytes,
		},
		"analysis": map[string]interface{}{
			"pitch_floor":     h.config.Analysis.PitchFloor,
			"pitch_ceiling":   h.config.Analysis.PitchCeiling,
			"pitch_time_step": h.config.Analysis.PitchTimeStep,
			"window_length":   h.config.Analysis.WindowLength,
			"max_frequency":   h.config.Analysis.MaxFrequency,
			"dynamic_range":   h.config.Analysis.DynamicRange,
			"time_step":       h.config.Analysis.TimeStep,
		},
		"render": map[string]interface{}{
			"width":         h.config.Render.Width,
			"row_height":    h.config.Render.RowHeight,
			"pitch_ceiling": h.config.Render.PitchCeiling,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)

	stats := map[string]interface{}{
		"uptime":    uptime.String(),
		"timestamp": time.Now().UTC(),
		"requests": map[string]interface{}{
			"renders_served":  h.rendersServed.Load(),
			"script_runs":     h.scriptRuns.Load(),
			"requests_failed": h.requestsFailed.Load(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
