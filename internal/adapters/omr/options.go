package omr

import (
	"time"

	"github.com/okian/chordscan/pkg/logger"
)

// Option applies a configuration option to the Adapter.
type Option func(*Adapter)

// WithEnginePath sets the engine executable, script, or .jar archive.
func WithEnginePath(path string) Option {
	return func(a *Adapter) { a.enginePath = path }
}

// WithJavaPath sets the runtime used for .jar engines.
func WithJavaPath(path string) Option {
	return func(a *Adapter) {
		if path != "" {
			a.javaPath = path
		}
	}
}

// WithTimeout sets the default wall-clock budget for one engine run.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithFallbackDirs sets the engine's default workspaces, probed when the
// job directory holds no artifact.
func WithFallbackDirs(dirs []string) Option {
	return func(a *Adapter) { a.fallbackDirs = dirs }
}

// WithDiagnosticsLimit caps the engine output attached to failures.
func WithDiagnosticsLimit(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.diagLimit = n
		}
	}
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(a *Adapter) {
		if r != nil {
			a.runner = r
		}
	}
}

// WithLogger sets a custom logger for the adapter.
func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}
