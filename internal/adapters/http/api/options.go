package api

import (
	"time"

	"github.com/okian/chordscan/pkg/logger"
)

const (
	defaultUploadsDir    = "uploads"
	defaultScoreMaxBytes = 50 << 20
	defaultAudioMaxBytes = 200 << 20
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithUploadsDir sets where raw uploads are stored.
func WithUploadsDir(dir string) Option {
	return func(s *Server) {
		if dir != "" {
			s.uploadsDir = dir
		}
	}
}

// WithScoreMaxBytes caps score uploads.
func WithScoreMaxBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.scoreMaxBytes = n
		}
	}
}

// WithAudioMaxBytes caps audio uploads.
func WithAudioMaxBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.audioMaxBytes = n
		}
	}
}

// WithFrontendOrigin sets the CORS origin allowed to call the API.
func WithFrontendOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.frontendOrigin = origin
		}
	}
}

// WithClock replaces time.Now for upload names and health timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
