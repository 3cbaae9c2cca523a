// Package server implements the HTTP server: the single page viewer UI,
// the render/analyze API and the monitoring endpoints.
package server
