// Package service wires the score and audio pipelines behind the API.
//
// Score scans are queued to a bounded worker pool so slow recognition runs
// never block request goroutines beyond their own wait. Audio uploads are
// handled inline: the language gate and lead-sheet synthesis are cheap.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/chordscan/internal/adapters/audiotags"
	"github.com/okian/chordscan/internal/adapters/langid"
	"github.com/okian/chordscan/internal/adapters/mq/queue"
	workerpool "github.com/okian/chordscan/internal/adapters/mq/worker"
	"github.com/okian/chordscan/internal/adapters/musicxml"
	"github.com/okian/chordscan/internal/adapters/omr"
	"github.com/okian/chordscan/internal/adapters/workspace"
	"github.com/okian/chordscan/internal/domain/chord"
	"github.com/okian/chordscan/internal/domain/langgate"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/pkg/logger"
)

const (
	defaultQueueSize     = 64
	defaultEngineTimeout = 180 * time.Second
	defaultOMROutDir     = "omr-out"
	defaultAudioOutDir   = "audio-out"

	// jobAttempts bounds retries when two jobs land on the same millisecond.
	jobAttempts = 10
)

// Recognizer runs the OMR engine for one job.
type Recognizer interface {
	Recognize(ctx context.Context, inputPath, outputDir string, timeout time.Duration) omr.Outcome
}

// Gate decides whether an audio upload is in the target language.
type Gate interface {
	Check(ctx context.Context, audioPath, originalName string) model.LanguageGateResult
	Target() string
}

// Service implements the API dependencies for the chord pipelines.
type Service struct {
	mu sync.RWMutex

	// Core components
	recognizer Recognizer
	gate       Gate
	chords     *chord.Engine
	jobs       *workspace.Manager
	scanQueue  queue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	engineTimeout time.Duration
	omrOutDir     string
	audioOutDir   string
	sheet         musicxml.Options
	now           func() time.Time

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc

	scans     atomic.Int64
	scanFails atomic.Int64
	audio     atomic.Int64
	rejected  atomic.Int64

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		engineTimeout: defaultEngineTimeout,
		omrOutDir:     defaultOMROutDir,
		audioOutDir:   defaultAudioOutDir,
		sheet:         musicxml.DefaultOptions(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the output roots and starts the worker pool. The pool runs
// on a context detached from ctx's cancellation so an engine run is only
// ever stopped by its own timeout or by Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.recognizer == nil {
		s.recognizer = omr.New(omr.WithTimeout(s.engineTimeout))
	}
	if s.gate == nil {
		s.gate = langgate.New(audiotags.NewReader(), langid.New())
	}
	if s.chords == nil {
		s.chords = chord.New()
	}

	jobs, err := workspace.New(s.omrOutDir)
	if err != nil {
		return fmt.Errorf("omr output root: %w", err)
	}
	if _, err := workspace.New(s.audioOutDir); err != nil {
		return fmt.Errorf("audio output root: %w", err)
	}
	s.jobs = jobs

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.scanQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.scanQueue, workerpool.ProcessorFunc(s.process))
	s.workerPool.Start(runCtx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "chordscan service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.String("omrOutDir", s.omrOutDir),
		logger.String("audioOutDir", s.audioOutDir),
		logger.Duration("engineTimeout", s.engineTimeout),
	)
	return nil
}

// Stop drains queued scans and shuts the pool down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping chordscan service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "chordscan service stopped")
}

// OMROutDir returns the root served under /omr-out.
func (s *Service) OMROutDir() string { return s.omrOutDir }

// AudioOutDir returns the directory served under /audio-out.
func (s *Service) AudioOutDir() string { return s.audioOutDir }

// GetStats returns service statistics for the /stats endpoint.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueCapacity": s.queueSize,
		"scans":         s.scans.Load(),
		"scanFailures":  s.scanFails.Load(),
		"audioAccepted": s.audio.Load(),
		"audioRejected": s.rejected.Load(),
	}
	if s.started {
		stats["workerCount"] = s.workerPool.Size()
		stats["queueLength"] = s.scanQueue.Len(context.Background())
		stats["processed"] = s.workerPool.Processed()
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())
		stats["targetLanguage"] = s.gate.Target()
	}
	return stats
}

// createJob allocates a job directory, retrying on a same-millisecond collision.
func (s *Service) createJob(ctx context.Context, in model.Input) (model.Job, error) {
	var err error
	for attempt := 0; attempt < jobAttempts; attempt++ {
		var job model.Job
		job, err = s.jobs.CreateJob(ctx, in)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, workspace.ErrJobExists) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	return model.Job{}, model.WrapKind(model.KindIO, "could not create job directory", err)
}

func (s *Service) ensureStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.WrapKind(model.KindUnknown, "service unavailable", ErrNotStarted)
	}
	return nil
}
