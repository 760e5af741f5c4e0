package langgate

import (
	"strings"

	"github.com/okian/chordscan/pkg/logger"
)

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithTarget sets the accepted ISO 639-3 code.
func WithTarget(code string) Option {
	return func(g *Gate) {
		if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
			g.target = code
		}
	}
}

// WithTextLimit caps the metadata text passed to the detector.
func WithTextLimit(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.textLimit = n
		}
	}
}

// WithLogger sets a custom logger for the gate.
func WithLogger(l logger.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}
