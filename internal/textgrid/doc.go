// Package textgrid parses Praat TextGrid annotation files into ordered
// tiers of labeled intervals and points.
package textgrid
