package upload

import (
	"fmt"
	"io"
	"os"

	"github.com/shane01526/ElegantPraat/internal/config"
)

// Store persists uploaded file parts to per-request temporary files
type Store struct {
	dir              string
	maxWAVBytes      int64
	maxTextGridBytes int64
}

// NewStore creates a store from the upload configuration
func NewStore(cfg config.UploadConfig) *Store {
	return &Store{
		dir:              cfg.TempDir,
		maxWAVBytes:      cfg.MaxWAVBytes,
		maxTextGridBytes: cfg.MaxTextGridBytes,
	}
}

// Request collects the temporary files created for one user interaction
// so they can be deleted together when the request finishes.
type Request struct {
	store *Store
	paths []string
}

// Begin starts a new request scope
func (s *Store) Begin() *Request {
	return &Request{store: s}
}

// SaveWAV persists an uploaded audio file and returns its path
func (r *Request) SaveWAV(src io.Reader) (string, error) {
	return r.save(src, "upload-*.wav", r.store.maxWAVBytes)
}

// SaveTextGrid persists an uploaded annotation file and returns its path
func (r *Request) SaveTextGrid(src io.Reader) (string, error) {
	return r.save(src, "upload-*.TextGrid", r.store.maxTextGridBytes)
}

func (r *Request) save(src io.Reader, pattern string, limit int64) (string, error) {
	tmp, err := os.CreateTemp(r.store.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	r.paths = append(r.paths, tmp.Name())

	// read one byte past the limit so oversize is detectable
	written, err := io.Copy(tmp, io.LimitReader(src, limit+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	if written > limit {
		return "", fmt.Errorf("uploaded file exceeds the %d byte limit", limit)
	}

	if written == 0 {
		return "", fmt.Errorf("uploaded file is empty")
	}

	return tmp.Name(), nil
}

// Cleanup removes every temporary file created for this request
func (r *Request) Cleanup() {
	for _, p := range r.paths {
		os.Remove(p)
	}
	r.paths = nil
}
