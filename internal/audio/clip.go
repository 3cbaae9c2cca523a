package audio

import (
	"fmt"
	"math"
)

// Clip represents a loaded audio recording: a fixed sequence of mono
// amplitude values plus a sample rate. A Clip is never mutated after load.
type Clip struct {
	samples    []float64
	sampleRate int
}

// NewClip creates a Clip from normalized samples and a sample rate
func NewClip(samples []float64, sampleRate int) (*Clip, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot create clip from empty samples")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	return &Clip{samples: samples, sampleRate: sampleRate}, nil
}

// Samples returns the amplitude values. Callers must not modify the
// returned slice.
func (c *Clip) Samples() []float64 {
	return c.samples
}

// SampleRate returns the sample rate in Hz
func (c *Clip) SampleRate() int {
	return c.sampleRate
}

// Len returns the number of samples
func (c *Clip) Len() int {
	return len(c.samples)
}

// Duration returns the total duration in seconds
func (c *Clip) Duration() float64 {
	return float64(len(c.samples)) / float64(c.sampleRate)
}

// Times returns the time axis: one value per sample, spanning [0, Duration)
func (c *Clip) Times() []float64 {
	times := make([]float64, len(c.samples))
	for i := range times {
		times[i] = float64(i) / float64(c.sampleRate)
	}
	return times
}

// MinMax returns the minimum and maximum amplitude values
func (c *Clip) MinMax() (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, s := range c.samples {
		if s < minVal {
			minVal = s
		}
		if s > maxVal {
			maxVal = s
		}
	}
	return minVal, maxVal
}

// Slice returns the sample range covering [start, end) seconds, clamped
// to the clip bounds.
func (c *Clip) Slice(start, end float64) []float64 {
	lo := int(start * float64(c.sampleRate))
	hi := int(end * float64(c.sampleRate))
	if lo < 0 {
		lo = 0
	}
	if hi > len(c.samples) {
		hi = len(c.samples)
	}
	if lo >= hi {
		return nil
	}
	return c.samples[lo:hi]
}
