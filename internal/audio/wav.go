package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// ValidateWAV performs a cheap sanity check on the RIFF container before
// full decoding. It only inspects the outer header so files with extra
// chunks (LIST, fact) still pass.
func ValidateWAV(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("WAV data too short: need at least 12 bytes, got %d", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(data[8:12]) != "WAVE" {
		return fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	return nil
}

// Info describes a WAV file without its decoded samples
type Info struct {
	SampleRate    int     `json:"sample_rate"`
	Channels      int     `json:"channels"`
	BitsPerSample int     `json:"bits_per_sample"`
	Duration      float64 `json:"duration_seconds"`
	NumSamples    int     `json:"num_samples"`
}

// DecodeWAV decodes WAV data into a mono Clip. Multi-channel audio is
// downmixed by averaging channels; integer samples are normalized to
// [-1, 1].
func DecodeWAV(data []byte) (*Clip, *Info, error) {
	if err := ValidateWAV(data); err != nil {
		return nil, nil, err
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode WAV data: %w", err)
	}

	if buf == nil || len(buf.Data) == 0 {
		return nil, nil, fmt.Errorf("no audio data found")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	sampleRate := buf.Format.SampleRate
	if sampleRate <= 0 {
		return nil, nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	bitDepth := int(decoder.BitDepth)
	samples := normalize(buf.Data, channels, bitDepth)

	clip, err := NewClip(samples, sampleRate)
	if err != nil {
		return nil, nil, err
	}

	info := &Info{
		SampleRate:    sampleRate,
		Channels:      channels,
		BitsPerSample: bitDepth,
		Duration:      clip.Duration(),
		NumSamples:    clip.Len(),
	}

	return clip, info, nil
}

// DecodeWAVFile decodes a WAV file from disk into a mono Clip
func DecodeWAVFile(path string) (*Clip, *Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read WAV file %s: %w", path, err)
	}
	return DecodeWAV(data)
}

// normalize downmixes interleaved integer PCM to mono float64 in [-1, 1]
func normalize(data []int, channels, bitDepth int) []float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}

	// 8-bit WAV is unsigned, everything else is signed
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := float64(int(1) << uint(bitDepth-1))

	frames := len(data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(data[i*channels+ch] - offset)
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples
}

// EncodeWAV encodes mono float64 samples into 16-bit PCM WAV bytes
func EncodeWAV(samples []float64, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	buf.WriteString("RIFF")
	writeLE(buf, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeLE(buf, uint32(16))
	writeLE(buf, uint16(1)) // PCM
	writeLE(buf, uint16(1)) // mono
	writeLE(buf, uint32(sampleRate))
	writeLE(buf, uint32(sampleRate*2))
	writeLE(buf, uint16(2))
	writeLE(buf, uint16(16))
	buf.WriteString("data")
	writeLE(buf, dataSize)

	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		writeLE(buf, int16(s*32767))
	}

	return buf.Bytes(), nil
}

func writeLE(w io.Writer, v interface{}) {
	binary.Write(w, binary.LittleEndian, v)
}
