// Package config defines process configuration and how it is loaded.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// AnimationSteps is the number of steps in the transition between two
	// score snapshots; the client receives AnimationSteps+1 frames.
	AnimationSteps int `koanf:"animation_steps"`

	// FrameDelay paces streamed frames. Zero sends them back to back.
	FrameDelay time.Duration `koanf:"frame_delay"`

	// SessionTTL expires browser sessions idle for longer than this.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// AnalyzeRate and AnalyzeBurst bound analyses per browser session.
	AnalyzeRate  float64 `koanf:"analyze_rate"`
	AnalyzeBurst int     `koanf:"analyze_burst"`

	// CompareGroups is the number of mood groups shown when comparing more
	// versions than that. Zero disables grouping.
	CompareGroups int `koanf:"compare_groups"`

	// BlocksPath optionally replaces the embedded block document with a file on disk.
	BlocksPath string `koanf:"blocks_path"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:           "127.0.0.1:8080",
		LogLevel:       "info",
		LogFormat:      "text",
		AnimationSteps: 25,
		FrameDelay:     10 * time.Millisecond,
		SessionTTL:     24 * time.Hour,
		AnalyzeRate:    2,
		AnalyzeBurst:   5,
		CompareGroups:  2,
	}
}
