package service

import (
	"time"

	"github.com/okian/chordscan/internal/adapters/musicxml"
	"github.com/okian/chordscan/internal/domain/chord"
	"github.com/okian/chordscan/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scan workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued scans.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithOMROutDir sets the root for per-job scan directories.
func WithOMROutDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.omrOutDir = dir
		}
	}
}

// WithAudioOutDir sets the directory lead sheets are written to.
func WithAudioOutDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.audioOutDir = dir
		}
	}
}

// WithRecognizer sets the recognition engine adapter.
func WithRecognizer(r Recognizer) Option {
	return func(s *Service) {
		if r != nil {
			s.recognizer = r
		}
	}
}

// WithEngineTimeout bounds each recognition run.
func WithEngineTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.engineTimeout = d
		}
	}
}

// WithGate sets the audio language gate.
func WithGate(g Gate) Option {
	return func(s *Service) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithChordEngine sets the chord inference engine.
func WithChordEngine(e *chord.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.chords = e
		}
	}
}

// WithLeadSheetOptions sets the layout of synthesized lead sheets.
func WithLeadSheetOptions(o musicxml.Options) Option {
	return func(s *Service) {
		s.sheet = o
	}
}

// WithClock replaces time.Now for job ids and file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
