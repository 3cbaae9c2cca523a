package audio

import (
	"math"
	"testing"
)

// sineWave generates a mono sine wave for tests
func sineWave(frequency float64, duration float64, sampleRate int) []float64 {
	numSamples := int(duration * float64(sampleRate))
	samples := make([]float64, numSamples)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = 0.5 * math.Sin(2*math.Pi*frequency*t)
	}
	return samples
}

func TestEncodeDecodeWAVRoundtrip(t *testing.T) {
	sampleRate := 8000
	samples := sineWave(440.0, 1.0, sampleRate)

	wavData, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	expectedSize := 44 + len(samples)*2
	if len(wavData) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(wavData))
	}

	clip, info, err := DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if clip.SampleRate() != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, clip.SampleRate())
	}

	if clip.Len() != len(samples) {
		t.Errorf("Expected %d samples, got %d", len(samples), clip.Len())
	}

	// Uploading a valid WAV of duration D must produce a clip spanning
	// exactly [0, D]
	if math.Abs(clip.Duration()-1.0) > 0.001 {
		t.Errorf("Expected duration 1.000, got %.3f", clip.Duration())
	}

	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}

	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}

	// Quantization through int16 loses at most 1/32767 per sample
	for i := 0; i < clip.Len(); i += 100 {
		if math.Abs(clip.Samples()[i]-samples[i]) > 0.001 {
			t.Fatalf("Sample %d: expected %.4f, got %.4f", i, samples[i], clip.Samples()[i])
		}
	}
}

func TestDecodeWAVInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"too short", []byte{1, 2, 3}},
		{"wrong magic", append([]byte("FAKE"), make([]byte, 40)...)},
		{"riff without wave", append([]byte("RIFF\x00\x00\x00\x00JUNK"), make([]byte, 32)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeWAV(tt.data); err == nil {
				t.Error("Expected error for invalid WAV data")
			}
		})
	}
}

func TestEncodeWAVValidation(t *testing.T) {
	if _, err := EncodeWAV([]float64{}, 8000); err == nil {
		t.Error("Expected error for empty samples")
	}

	if _, err := EncodeWAV([]float64{0.1, 0.2}, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}

	if _, err := EncodeWAV([]float64{0.1, 0.2}, -8000); err == nil {
		t.Error("Expected error for negative sample rate")
	}
}

func TestEncodeWAVClipsOutOfRange(t *testing.T) {
	wavData, err := EncodeWAV([]float64{2.0, -2.0}, 8000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	clip, _, err := DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	minV, maxV := clip.MinMax()
	if maxV > 1.0 || minV < -1.0 {
		t.Errorf("Expected samples clamped to [-1, 1], got [%f, %f]", minV, maxV)
	}
}

func TestValidateWAV(t *testing.T) {
	if err := ValidateWAV([]byte{1, 2, 3}); err == nil {
		t.Error("Expected error for too short WAV data")
	}

	wavData, err := EncodeWAV(sineWave(100, 0.01, 8000), 8000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if err := ValidateWAV(wavData); err != nil {
		t.Errorf("Valid WAV rejected: %v", err)
	}
}
