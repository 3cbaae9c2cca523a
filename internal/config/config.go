package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Upload   UploadConfig   `yaml:"upload"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Port         int    `yaml:"port"`
	Address      string `yaml:"address"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
}

// UploadConfig contains limits for uploaded files and the temp file location
type UploadConfig struct {
	TempDir          string `yaml:"temp_dir"` // empty means the system temp dir
	MaxWAVBytes      int64  `yaml:"max_wav_bytes"`
	MaxTextGridBytes int64  `yaml:"max_textgrid_bytes"`
}

// AnalysisConfig contains acoustic analysis parameters
type AnalysisConfig struct {
	PitchFloor    float64 `yaml:"pitch_floor"`     // Hz
	PitchCeiling  float64 `yaml:"pitch_ceiling"`   // Hz
	PitchTimeStep float64 `yaml:"pitch_time_step"` // seconds
	WindowLength  float64 `yaml:"window_length"`   // seconds, spectrogram analysis window
	MaxFrequency  float64 `yaml:"max_frequency"`   // Hz, spectrogram view ceiling
	DynamicRange  float64 `yaml:"dynamic_range"`   // dB
	TimeStep      float64 `yaml:"time_step"`       // seconds, spectrogram frame step
}

// RenderConfig contains figure rendering parameters
type RenderConfig struct {
	Width        int     `yaml:"width"`         // pixels
	RowHeight    int     `yaml:"row_height"`    // pixels per layout row
	PitchCeiling float64 `yaml:"pitch_ceiling"` // Hz, fixed pitch overlay axis
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with sensible defaults, useful for tests
// and for running without a config file.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:         8080,
			Address:      "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 60,
		},
		Upload: UploadConfig{
			MaxWAVBytes:      50 << 20,
			MaxTextGridBytes: 2 << 20,
		},
		Analysis: AnalysisConfig{
			PitchFloor:    75.0,
			PitchCeiling:  600.0,
			PitchTimeStep: 0.01,
			WindowLength:  0.005,
			MaxFrequency:  5000.0,
			DynamicRange:  70.0,
			TimeStep:      0.002,
		},
		Render: RenderConfig{
			Width:        1000,
			RowHeight:    80,
			PitchCeiling: 500.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Upload.Validate(); err != nil {
		return fmt.Errorf("upload config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if h.ReadTimeout < 1 {
		return fmt.Errorf("read_timeout must be at least 1 second, got %d", h.ReadTimeout)
	}

	if h.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second, got %d", h.WriteTimeout)
	}

	return nil
}

// Validate validates upload configuration
func (u *UploadConfig) Validate() error {
	if u.MaxWAVBytes < 44 {
		return fmt.Errorf("max_wav_bytes must be at least 44 (one WAV header), got %d", u.MaxWAVBytes)
	}

	if u.MaxTextGridBytes < 1 {
		return fmt.Errorf("max_textgrid_bytes must be positive, got %d", u.MaxTextGridBytes)
	}

	return nil
}

// Validate validates analysis configuration
func (a *AnalysisConfig) Validate() error {
	if a.PitchFloor <= 0 {
		return fmt.Errorf("pitch_floor must be positive, got %f", a.PitchFloor)
	}

	if a.PitchCeiling <= a.PitchFloor {
		return fmt.Errorf("pitch_ceiling (%f) must be greater than pitch_floor (%f)",
			a.PitchCeiling, a.PitchFloor)
	}

	if a.PitchTimeStep <= 0 {
		return fmt.Errorf("pitch_time_step must be positive, got %f", a.PitchTimeStep)
	}

	if a.WindowLength <= 0 {
		return fmt.Errorf("window_length must be positive, got %f", a.WindowLength)
	}

	if a.MaxFrequency <= 0 {
		return fmt.Errorf("max_frequency must be positive, got %f", a.MaxFrequency)
	}

	if a.DynamicRange <= 0 {
		return fmt.Errorf("dynamic_range must be positive, got %f", a.DynamicRange)
	}

	if a.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive, got %f", a.TimeStep)
	}

	return nil
}

// Validate validates render configuration
func (r *RenderConfig) Validate() error {
	if r.Width < 100 {
		return fmt.Errorf("width must be at least 100 pixels, got %d", r.Width)
	}

	if r.RowHeight < 20 {
		return fmt.Errorf("row_height must be at least 20 pixels, got %d", r.RowHeight)
	}

	if r.PitchCeiling <= 0 {
		return fmt.Errorf("pitch_ceiling must be positive, got %f", r.PitchCeiling)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetReadTimeout returns the HTTP read timeout as a time.Duration
func (h *HTTPConfig) GetReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a time.Duration
func (h *HTTPConfig) GetWriteTimeout() time.Duration {
	return time.Duration(h.WriteTimeout) * time.Second
}
