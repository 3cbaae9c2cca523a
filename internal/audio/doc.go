// Package audio provides the immutable audio clip model and WAV
// encoding/decoding.
package audio
