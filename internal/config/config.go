// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers a YAML file and CHORDSCAN_ env vars over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	mib = 1 << 20

	defaultEngineTimeoutMS = 180_000
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8001".
	Addr string `koanf:"addr"`

	// UploadsDir receives raw uploads before processing.
	UploadsDir string `koanf:"uploads_dir"`

	// OMROutDir is the workspace root for scan jobs. Served at /omr-out.
	OMROutDir string `koanf:"omr_out_dir"`

	// AudioOutDir holds synthesized lead sheets. Served at /audio-out.
	AudioOutDir string `koanf:"audio_out_dir"`

	// EnginePath points at the Audiveris launcher, script or jar.
	EnginePath string `koanf:"engine_path"`

	// JavaPath is used when EnginePath is a .jar.
	JavaPath string `koanf:"java_path"`

	// EngineTimeoutMS bounds one engine run.
	EngineTimeoutMS int `koanf:"engine_timeout_ms"`

	// EngineFallbackDirs are searched when the engine ignores -output.
	EngineFallbackDirs []string `koanf:"engine_fallback_dirs"`

	// DiagnosticsLimit caps the stderr/stdout text attached to failures.
	DiagnosticsLimit int `koanf:"diagnostics_limit"`

	// ScoreMaxBytes and AudioMaxBytes cap upload sizes.
	ScoreMaxBytes int64 `koanf:"score_max_bytes"`
	AudioMaxBytes int64 `koanf:"audio_max_bytes"`

	// TargetLanguage is the ISO 639-3 code the audio gate accepts.
	TargetLanguage string `koanf:"target_language"`

	// LanguageMinLength is the shortest text the detector will classify.
	LanguageMinLength int `koanf:"language_min_length"`

	// MetadataTextLimit truncates tag text before detection.
	MetadataTextLimit int `koanf:"metadata_text_limit"`

	// WorkerCount sets the number of scan workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory scan queue.
	QueueSize int `koanf:"queue_size"`

	// FrontendOrigin is the allowed CORS origin.
	FrontendOrigin string `koanf:"frontend_origin"`

	// Lead sheet layout.
	BeatsPerBar int `koanf:"beats_per_bar"`
	Divisions   int `koanf:"divisions"`
	Tempo       int `koanf:"tempo"`
	KeyFifths   int `koanf:"key_fifths"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":8001",
		UploadsDir:         "uploads",
		OMROutDir:          "omr-out",
		AudioOutDir:        "audio-out",
		JavaPath:           "java",
		EngineTimeoutMS:    defaultEngineTimeoutMS,
		EngineFallbackDirs: defaultFallbackDirs(),
		DiagnosticsLimit:   4000,
		ScoreMaxBytes:      50 * mib,
		AudioMaxBytes:      200 * mib,
		TargetLanguage:     "tgl",
		LanguageMinLength:  10,
		MetadataTextLimit:  5000,
		WorkerCount:        runtime.NumCPU(),
		QueueSize:          64,
		FrontendOrigin:     "*",
		BeatsPerBar:        4,
		Divisions:          1,
		Tempo:              100,
		KeyFifths:          0,
	}
}

func defaultFallbackDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil
	}
	base := filepath.Join(home, "Documents", "Audiveris")
	return []string{base, filepath.Join(base, "workspace")}
}

// EngineTimeout returns the engine budget as a duration.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.EngineTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EngineTimeoutMS <= 0:
		return fmt.Errorf("%w: engine_timeout_ms must be positive", ErrInvalidConfig)
	case c.ScoreMaxBytes <= 0 || c.AudioMaxBytes <= 0:
		return fmt.Errorf("%w: upload size caps must be positive", ErrInvalidConfig)
	case c.ScoreMaxBytes >= c.AudioMaxBytes:
		return fmt.Errorf("%w: score_max_bytes must be below audio_max_bytes", ErrInvalidConfig)
	case strings.TrimSpace(c.TargetLanguage) == "":
		return fmt.Errorf("%w: target_language must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0 || c.QueueSize <= 0:
		return fmt.Errorf("%w: worker_count and queue_size must be positive", ErrInvalidConfig)
	case c.BeatsPerBar <= 0 || c.Divisions <= 0 || c.Tempo <= 0:
		return fmt.Errorf("%w: beats_per_bar, divisions and tempo must be positive", ErrInvalidConfig)
	}
	return nil
}
