package dsp

import (
	"math"
	"testing"

	"github.com/shane01526/ElegantPraat/internal/audio"
)

// sineClip builds a mono sine wave test clip
func sineClip(t *testing.T, frequency float64, duration float64, sampleRate int) *audio.Clip {
	t.Helper()
	numSamples := int(duration * float64(sampleRate))
	samples := make([]float64, numSamples)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate))
	}
	clip, err := audio.NewClip(samples, sampleRate)
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	return clip
}

// silentClip builds an all-zero test clip
func silentClip(t *testing.T, duration float64, sampleRate int) *audio.Clip {
	t.Helper()
	clip, err := audio.NewClip(make([]float64, int(duration*float64(sampleRate))), sampleRate)
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	return clip
}

func TestComputePitchSine(t *testing.T) {
	clip := sineClip(t, 440.0, 1.0, 44100)

	track, err := ComputePitch(clip, DefaultPitchOptions())
	if err != nil {
		t.Fatalf("ComputePitch failed: %v", err)
	}

	if track.VoicedCount() == 0 {
		t.Fatal("Expected voiced frames for a steady sine wave")
	}

	mean := track.MeanPitch()
	if math.Abs(mean-440.0) > 10.0 {
		t.Errorf("Expected mean pitch near 440 Hz, got %.2f", mean)
	}

	for i, tm := range track.Times {
		if tm < 0 || tm > clip.Duration() {
			t.Fatalf("Frame %d time %.4f outside the clip", i, tm)
		}
	}
}

func TestComputePitchSilence(t *testing.T) {
	clip := silentClip(t, 0.5, 16000)

	track, err := ComputePitch(clip, DefaultPitchOptions())
	if err != nil {
		t.Fatalf("ComputePitch failed: %v", err)
	}

	if track.VoicedCount() != 0 {
		t.Errorf("Expected no voiced frames in silence, got %d", track.VoicedCount())
	}

	if !math.IsNaN(track.MeanPitch()) {
		t.Errorf("Expected NaN mean for an unvoiced track, got %f", track.MeanPitch())
	}
}

func TestComputePitchShortClip(t *testing.T) {
	// Shorter than one analysis frame: the track still has one value
	clip := sineClip(t, 200.0, 0.01, 16000)

	track, err := ComputePitch(clip, DefaultPitchOptions())
	if err != nil {
		t.Fatalf("ComputePitch failed: %v", err)
	}

	if len(track.Times) != 1 {
		t.Fatalf("Expected a single frame, got %d", len(track.Times))
	}
	if !math.IsNaN(track.Values[0]) {
		t.Errorf("Expected the fallback frame to be unvoiced, got %f", track.Values[0])
	}
}

func TestComputePitchOptionValidation(t *testing.T) {
	clip := sineClip(t, 200.0, 0.2, 16000)

	tests := []struct {
		name string
		opts PitchOptions
	}{
		{"zero floor", PitchOptions{Floor: 0, Ceiling: 600, TimeStep: 0.01}},
		{"ceiling below floor", PitchOptions{Floor: 300, Ceiling: 100, TimeStep: 0.01}},
		{"zero time step", PitchOptions{Floor: 75, Ceiling: 600, TimeStep: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ComputePitch(clip, tt.opts); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestMeanPitch(t *testing.T) {
	clip := sineClip(t, 220.0, 0.5, 44100)

	mean, err := MeanPitch(clip, DefaultPitchOptions())
	if err != nil {
		t.Fatalf("MeanPitch failed: %v", err)
	}
	if math.Abs(mean-220.0) > 10.0 {
		t.Errorf("Expected mean pitch near 220 Hz, got %.2f", mean)
	}

	if _, err := MeanPitch(silentClip(t, 0.5, 16000), DefaultPitchOptions()); err == nil {
		t.Error("Expected error for a fully unvoiced clip")
	}
}
