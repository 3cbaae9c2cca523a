// Package render draws the combined waveform/spectrogram/pitch/tier
// figure as a PNG image.
package render
