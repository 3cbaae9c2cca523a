package dsp

import (
	"fmt"
	"math"

	"github.com/r9y9/gossp/stft"

	"github.com/shane01526/ElegantPraat/internal/audio"
)

// SpectrogramOptions controls short-time spectral analysis
type SpectrogramOptions struct {
	WindowLength float64 // seconds, analysis window
	TimeStep     float64 // seconds, frame step
	MaxFrequency float64 // Hz, highest frequency bin kept
	DynamicRange float64 // dB below the peak to keep
}

// DefaultSpectrogramOptions mirrors the standard broad-band analysis
// settings: 5 ms window, 2 ms step, 5 kHz view, 70 dB dynamic range.
func DefaultSpectrogramOptions() SpectrogramOptions {
	return SpectrogramOptions{
		WindowLength: 0.005,
		TimeStep:     0.002,
		MaxFrequency: 5000.0,
		DynamicRange: 70.0,
	}
}

// Spectrogram holds a time-frequency-intensity analysis. Power is indexed
// [frame][bin] in dB, floored at MaxPower minus the dynamic range.
type Spectrogram struct {
	Times    []float64   // frame center times, seconds
	Freqs    []float64   // bin frequencies, Hz
	Power    [][]float64 // dB magnitudes
	MaxPower float64     // dB
	MinPower float64     // dB floor
}

// NumFrames returns the number of analysis frames
func (s *Spectrogram) NumFrames() int {
	return len(s.Times)
}

// NumBins returns the number of frequency bins per frame
func (s *Spectrogram) NumBins() int {
	return len(s.Freqs)
}

// ComputeSpectrogram computes a magnitude spectrogram of the clip
func ComputeSpectrogram(clip *audio.Clip, opts SpectrogramOptions) (*Spectrogram, error) {
	if opts.WindowLength <= 0 || opts.TimeStep <= 0 {
		return nil, fmt.Errorf("window length and time step must be positive")
	}
	if opts.MaxFrequency <= 0 {
		return nil, fmt.Errorf("max frequency must be positive, got %f", opts.MaxFrequency)
	}
	if opts.DynamicRange <= 0 {
		return nil, fmt.Errorf("dynamic range must be positive, got %f", opts.DynamicRange)
	}

	sr := clip.SampleRate()
	frameLen := nextPow2(int(opts.WindowLength * float64(sr)))
	if frameLen < 16 {
		frameLen = 16
	}
	frameShift := int(opts.TimeStep * float64(sr))
	if frameShift < 1 {
		frameShift = 1
	}

	samples := clip.Samples()
	if len(samples) < frameLen {
		padded := make([]float64, frameLen)
		copy(padded, samples)
		samples = padded
	}

	s := stft.New(frameShift, frameLen)
	spectrum := s.STFT(samples)
	if len(spectrum) == 0 {
		return nil, fmt.Errorf("audio too short for spectral analysis")
	}

	nyquist := float64(sr) / 2
	maxFreq := opts.MaxFrequency
	if maxFreq > nyquist {
		maxFreq = nyquist
	}

	numBins := int(maxFreq*float64(frameLen)/float64(sr)) + 1
	if numBins > frameLen/2 {
		numBins = frameLen / 2
	}

	sg := &Spectrogram{
		Times:    make([]float64, len(spectrum)),
		Freqs:    make([]float64, numBins),
		Power:    make([][]float64, len(spectrum)),
		MaxPower: math.Inf(-1),
	}

	for j := 0; j < numBins; j++ {
		sg.Freqs[j] = float64(j) * float64(sr) / float64(frameLen)
	}

	for i, frame := range spectrum {
		sg.Times[i] = (float64(i)*float64(frameShift) + float64(frameLen)/2) / float64(sr)
		row := make([]float64, numBins)
		for j := 0; j < numBins; j++ {
			mag := math.Hypot(real(frame[j]), imag(frame[j]))
			db := 20 * math.Log10(math.Max(mag, 1e-10))
			row[j] = db
			if db > sg.MaxPower {
				sg.MaxPower = db
			}
		}
		sg.Power[i] = row
	}

	// Floor everything below the dynamic range so the renderer's
	// normalization is stable for near-silent input.
	sg.MinPower = sg.MaxPower - opts.DynamicRange
	for _, row := range sg.Power {
		for j, db := range row {
			if db < sg.MinPower {
				row[j] = sg.MinPower
			}
		}
	}

	return sg, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
