// Package dsp implements the acoustic analyses: spectrogram computation
// and pitch tracking.
package dsp
