package dsp

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/shane01526/ElegantPraat/internal/audio"
)

// PitchOptions controls fundamental frequency estimation
type PitchOptions struct {
	Floor    float64 // Hz, lowest candidate
	Ceiling  float64 // Hz, highest candidate
	TimeStep float64 // seconds, frame step
}

// DefaultPitchOptions returns the standard 75-600 Hz speech range
func DefaultPitchOptions() PitchOptions {
	return PitchOptions{
		Floor:    75.0,
		Ceiling:  600.0,
		TimeStep: 0.01,
	}
}

// voicingThreshold is the minimum normalized autocorrelation peak for a
// frame to count as voiced.
const voicingThreshold = 0.45

// silenceThreshold is the minimum frame RMS for voicing, relative to
// full scale.
const silenceThreshold = 1e-4

// PitchTrack holds estimated fundamental frequency values over time.
// Unvoiced frames are NaN.
type PitchTrack struct {
	Times  []float64
	Values []float64
}

// VoicedCount returns the number of voiced frames
func (p *PitchTrack) VoicedCount() int {
	n := 0
	for _, v := range p.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// MeanPitch returns the mean of the voiced frames in Hz, or NaN when the
// track is entirely unvoiced.
func (p *PitchTrack) MeanPitch() float64 {
	sum := 0.0
	n := 0
	for _, v := range p.Values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// ComputePitch estimates a pitch track with frame-wise normalized
// autocorrelation. Each frame spans three periods of the pitch floor.
func ComputePitch(clip *audio.Clip, opts PitchOptions) (*PitchTrack, error) {
	if opts.Floor <= 0 {
		return nil, fmt.Errorf("pitch floor must be positive, got %f", opts.Floor)
	}
	if opts.Ceiling <= opts.Floor {
		return nil, fmt.Errorf("pitch ceiling (%f) must be greater than floor (%f)",
			opts.Ceiling, opts.Floor)
	}
	if opts.TimeStep <= 0 {
		return nil, fmt.Errorf("pitch time step must be positive, got %f", opts.TimeStep)
	}

	sr := clip.SampleRate()
	frameLen := int(3.0 / opts.Floor * float64(sr))
	frameShift := int(opts.TimeStep * float64(sr))
	if frameShift < 1 {
		frameShift = 1
	}

	minLag := int(float64(sr) / opts.Ceiling)
	maxLag := int(float64(sr) / opts.Floor)
	if minLag < 2 {
		minLag = 2
	}
	if maxLag >= frameLen {
		maxLag = frameLen - 1
	}

	samples := clip.Samples()
	track := &PitchTrack{}

	for start := 0; start+frameLen <= len(samples); start += frameShift {
		frame := samples[start : start+frameLen]
		t := (float64(start) + float64(frameLen)/2) / float64(sr)

		track.Times = append(track.Times, t)
		track.Values = append(track.Values, estimateF0(frame, sr, minLag, maxLag))
	}

	if len(track.Times) == 0 {
		// Too short for even one frame: a single unvoiced frame keeps
		// the overlay well defined.
		track.Times = append(track.Times, clip.Duration()/2)
		track.Values = append(track.Values, math.NaN())
	}

	return track, nil
}

// estimateF0 returns the fundamental frequency of one frame in Hz, or
// NaN when the frame is judged unvoiced.
func estimateF0(frame []float64, sr, minLag, maxLag int) float64 {
	n := len(frame)

	mean := 0.0
	for _, s := range frame {
		mean += s
	}
	mean /= float64(n)

	rms := 0.0
	centered := make([]float64, nextPow2(2*n))
	for i, s := range frame {
		v := s - mean
		centered[i] = v
		rms += v * v
	}
	rms = math.Sqrt(rms / float64(n))
	if rms < silenceThreshold {
		return math.NaN()
	}

	// Autocorrelation via the Wiener-Khinchin theorem
	spec := fft.FFTReal(centered)
	for i, c := range spec {
		spec[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	corr := fft.IFFT(spec)

	r0 := real(corr[0])
	if r0 <= 0 {
		return math.NaN()
	}

	bestLag := 0
	bestVal := 0.0
	for lag := minLag; lag <= maxLag && lag < len(corr); lag++ {
		v := real(corr[lag]) / r0
		if v > bestVal {
			bestVal = v
			bestLag = lag
		}
	}

	if bestLag == 0 || bestVal < voicingThreshold {
		return math.NaN()
	}

	// Parabolic interpolation around the peak for sub-sample lag accuracy
	lag := float64(bestLag)
	if bestLag > minLag && bestLag < maxLag && bestLag+1 < len(corr) {
		prev := real(corr[bestLag-1]) / r0
		next := real(corr[bestLag+1]) / r0
		denom := prev - 2*bestVal + next
		if denom != 0 {
			lag += 0.5 * (prev - next) / denom
		}
	}

	return float64(sr) / lag
}

// MeanPitch is a convenience for the script engine's "Get mean pitch"
func MeanPitch(clip *audio.Clip, opts PitchOptions) (float64, error) {
	track, err := ComputePitch(clip, opts)
	if err != nil {
		return 0, err
	}

	mean := track.MeanPitch()
	if math.IsNaN(mean) {
		return 0, fmt.Errorf("no voiced frames found")
	}
	return mean, nil
}
