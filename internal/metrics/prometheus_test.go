package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	// Exercise the helpers; values land in the default registry
	m.RecordUpload(1024)
	m.RecordUploadRejected()
	m.RecordAnalysis(1.5, true, true, 2)
	m.RecordAnalysisFailure()
	m.RecordRender(0.05, 2048)
	m.RecordScriptRun(false)
	m.RecordScriptRun(true)
	m.RecordHTTPRequest("POST", "/api/analyze", "200", 0.1)
	m.RecordHTTPError("POST", "/api/analyze", "client_error")

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}

	for _, name := range []string{
		"praatview_uploads_received_total",
		"praatview_analyses_total",
		"praatview_render_duration_seconds",
		"praatview_script_runs_total",
		"praatview_http_requests_total",
	} {
		if !found[name] {
			t.Errorf("Expected metric %s to be registered", name)
		}
	}
}
