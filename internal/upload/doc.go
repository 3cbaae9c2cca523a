// Package upload handles per-request temporary storage of uploaded
// audio and annotation files.
package upload
