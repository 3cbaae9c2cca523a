package server

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/shane01526/ElegantPraat/internal/audio"
	"github.com/shane01526/ElegantPraat/internal/dsp"
	"github.com/shane01526/ElegantPraat/internal/render"
	"github.com/shane01526/ElegantPraat/internal/script"
	"github.com/shane01526/ElegantPraat/internal/textgrid"
)

// viewRequest carries one user interaction through the pipeline
type viewRequest struct {
	wav             multipart.File
	grid            multipart.File // nil when no annotation file was uploaded
	showSpectrogram bool
	showPitch       bool
	scriptSource    string // empty when the script box was not run
}

// viewResult is everything the page displays back
type viewResult struct {
	Info         *audio.Info
	NumTiers     int
	PNG          []byte
	ScriptOutput string
	ScriptError  string
}

// runPipeline executes the full upload-analyze-render sequence for one
// request. Temporary files live only for the duration of the call.
func (h *HTTPServer) runPipeline(req viewRequest) (*viewResult, error) {
	scope := h.uploads.Begin()
	defer scope.Cleanup()

	wavPath, err := scope.SaveWAV(req.wav)
	if err != nil {
		h.metrics.RecordUploadRejected()
		return nil, fmt.Errorf("audio upload: %w", err)
	}

	clip, info, err := audio.DecodeWAVFile(wavPath)
	if err != nil {
		h.metrics.RecordUploadRejected()
		return nil, fmt.Errorf("audio decode: %w", err)
	}
	h.metrics.RecordUpload(int64(info.NumSamples) * int64(info.BitsPerSample) / 8)

	var grid *textgrid.TextGrid
	if req.grid != nil {
		gridPath, err := scope.SaveTextGrid(req.grid)
		if err != nil {
			h.metrics.RecordUploadRejected()
			return nil, fmt.Errorf("annotation upload: %w", err)
		}

		grid, err = textgrid.ParseFile(gridPath)
		if err != nil {
			h.metrics.RecordUploadRejected()
			return nil, fmt.Errorf("annotation parse: %w", err)
		}
	}

	fig := render.Figure{Clip: clip, Annotations: grid}

	analysisCfg := h.config.Analysis
	if req.showSpectrogram {
		sg, err := dsp.ComputeSpectrogram(clip, dsp.SpectrogramOptions{
			WindowLength: analysisCfg.WindowLength,
			TimeStep:     analysisCfg.TimeStep,
			MaxFrequency: analysisCfg.MaxFrequency,
			DynamicRange: analysisCfg.DynamicRange,
		})
		if err != nil {
			h.metrics.RecordAnalysisFailure()
			return nil, fmt.Errorf("spectrogram: %w", err)
		}
		fig.Spectrogram = sg
	}

	pitchOpts := dsp.PitchOptions{
		Floor:    analysisCfg.PitchFloor,
		Ceiling:  analysisCfg.PitchCeiling,
		TimeStep: analysisCfg.PitchTimeStep,
	}
	if req.showPitch {
		track, err := dsp.ComputePitch(clip, pitchOpts)
		if err != nil {
			h.metrics.RecordAnalysisFailure()
			return nil, fmt.Errorf("pitch: %w", err)
		}
		fig.Pitch = track
	}

	numTiers := 0
	if grid != nil {
		numTiers = len(grid.Tiers)
	}

	renderStart := time.Now()
	img, err := render.Draw(fig, render.Options{
		Width:        h.config.Render.Width,
		RowHeight:    h.config.Render.RowHeight,
		PitchCeiling: h.config.Render.PitchCeiling,
	})
	if err != nil {
		h.metrics.RecordAnalysisFailure()
		return nil, fmt.Errorf("render: %w", err)
	}

	png, err := render.EncodePNG(img)
	if err != nil {
		h.metrics.RecordAnalysisFailure()
		return nil, fmt.Errorf("encode: %w", err)
	}
	h.metrics.RecordRender(time.Since(renderStart).Seconds(), len(png))
	h.metrics.RecordAnalysis(clip.Duration(), req.showSpectrogram, req.showPitch, numTiers)

	result := &viewResult{
		Info:     info,
		NumTiers: numTiers,
		PNG:      png,
	}

	// Script failures are surfaced as text, never as a request error
	if req.scriptSource != "" {
		interp := script.New(clip, pitchOpts)
		out, err := interp.Run(req.scriptSource)
		result.ScriptOutput = out
		if err != nil {
			result.ScriptError = err.Error()
			h.logger.Warn("Script execution failed",
				slog.String("error", err.Error()),
			)
		}
		h.metrics.RecordScriptRun(err != nil)
	}

	return result, nil
}
