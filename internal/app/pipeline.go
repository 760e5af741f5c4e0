package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/chordscan/internal/adapters/mq/queue"
	"github.com/okian/chordscan/internal/adapters/musicxml"
	"github.com/okian/chordscan/internal/adapters/workspace"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/pkg/logger"
	"github.com/okian/chordscan/pkg/metrics"
)

const (
	// EmptyScoreMessage is reported when recognition produced no measures.
	EmptyScoreMessage = "Empty score content after OMR (no measures found)."
	// NoChordMessage is reported when no measure yielded a chord label.
	NoChordMessage = "No chords could be recognized in the score."

	// DefaultLeadSheetTitle names lead sheets for uploads with no usable name.
	DefaultLeadSheetTitle = "Untitled Song"
	leadSheetExt          = ".musicxml"
	filePerm              = 0o644
)

// placeholderProgression stands in for real audio chord estimation.
var placeholderProgression = []string{"C", "G", "Am", "F", "C", "G", "C"}

// ScanScore recognizes an uploaded score and infers one chord per measure.
// EmptyScore and NoChordRecognized are returned as *model.Error; the latter
// carries the per-measure results so callers can still show pitch data.
func (s *Service) ScanScore(ctx context.Context, in model.Input) (model.ScanResult, error) {
	if err := s.ensureStarted(); err != nil {
		return model.ScanResult{}, err
	}

	job, err := s.createJob(ctx, in)
	if err != nil {
		s.finishScan(ctx, model.ScanResult{}, err)
		return model.ScanResult{}, err
	}

	task := queue.NewTask(job)
	if !s.scanQueue.Enqueue(ctx, task) {
		err := model.WrapKind(model.KindBackpressure, "too many scans in progress, try again shortly", queue.ErrQueueFull)
		s.finishScan(ctx, model.ScanResult{Job: job}, err)
		return model.ScanResult{Job: job}, err
	}

	select {
	case res := <-task.Result:
		res.Scan.Job = job
		if res.Err != nil {
			res.Scan.Job.Status = model.JobFailed
		} else {
			res.Scan.Job.Status = model.JobDone
		}
		s.finishScan(ctx, res.Scan, res.Err)
		return res.Scan, res.Err
	case <-ctx.Done():
		// The worker keeps going; only this caller stops waiting.
		return model.ScanResult{Job: job}, model.WrapKind(model.KindUnknown, "request cancelled while scanning", ctx.Err())
	}
}

func (s *Service) finishScan(ctx context.Context, res model.ScanResult, err error) {
	s.scans.Add(1)
	outcome := "success"
	if err != nil {
		s.scanFails.Add(1)
		outcome = model.KindOf(err).String()
	}
	metrics.RecordScan(outcome)
	logger.With(s.logger, logger.Job(res.Job.ID, res.Job.TraceID)...).Info(ctx, "score scan finished",
		logger.String("outcome", outcome),
		logger.String("file", res.Job.Input.OriginalName),
		logger.Int("measures", len(res.Chords)),
	)
}

// process is the worker-side pipeline: recognize, load, extract, infer.
func (s *Service) process(ctx context.Context, job model.Job) (model.ScanResult, error) {
	res := model.ScanResult{Job: job}
	log := logger.With(s.logger, logger.Job(job.ID, job.TraceID)...)

	outcome := s.recognizer.Recognize(ctx, job.Input.Path, job.OutputDir, s.engineTimeout)
	if err := outcome.Err(); err != nil {
		return res, err
	}
	res.ArtifactPath = outcome.ArtifactPath
	if outcome.FromFallback {
		adopted, err := workspace.CopyInto(outcome.ArtifactPath, job.OutputDir)
		if err != nil {
			return res, model.WrapKind(model.KindIO, "could not copy engine output into the job", err)
		}
		res.ArtifactPath = adopted
	}
	log.Debug(ctx, "artifact located",
		logger.String("path", outcome.ArtifactPath),
		logger.Bool("fallback", outcome.FromFallback),
		logger.Duration("engine", outcome.Duration),
	)

	doc, err := musicxml.Load(res.ArtifactPath)
	if err != nil {
		return res, err
	}

	extraction := musicxml.ExtractMeasures(doc)
	if extraction.Empty() {
		return res, model.NewKind(model.KindEmptyScore, EmptyScoreMessage)
	}
	metrics.RecordMeasuresExtracted(len(extraction.Measures))

	res.Chords = s.inferChords(extraction)
	if !model.AnyChord(res.Chords) {
		e := model.NewKind(model.KindNoChordRecognized, NoChordMessage)
		e.Chords = res.Chords
		return res, e
	}
	return res, nil
}

func (s *Service) inferChords(ex musicxml.Extraction) []model.MeasureChordResult {
	out := make([]model.MeasureChordResult, 0, len(ex.Measures))
	recognized := 0
	for _, m := range ex.Measures {
		label, ok := s.chords.Best(m.PitchClasses)
		if ok {
			recognized++
		}
		out = append(out, model.MeasureChordResult{
			Measure: m.Number,
			Chord:   label,
			Notes:   m.PitchClasses,
		})
	}
	metrics.RecordChordsRecognized(recognized)
	return out
}

// ScoreAudio gates an audio upload by language and, when accepted, writes a
// lead sheet for its estimated chords. A rejection performs no synthesis and
// returns a LanguageRejected error carrying the detected code.
func (s *Service) ScoreAudio(ctx context.Context, in model.Input) (model.AudioResult, error) {
	if err := s.ensureStarted(); err != nil {
		return model.AudioResult{}, err
	}

	start := time.Now()
	now := s.now()
	job := model.Job{
		ID:        fmt.Sprint(now.UnixMilli()),
		TraceID:   uuid.NewString(),
		Input:     in,
		OutputDir: s.audioOutDir,
		Status:    model.JobRunning,
		CreatedAt: now,
	}
	log := logger.With(s.logger, logger.Job(job.ID, job.TraceID)...)
	res := model.AudioResult{Job: job}

	res.Gate = s.gate.Check(ctx, in.Path, in.OriginalName)
	if !res.Gate.Accepted {
		s.rejected.Add(1)
		res.Job.Status = model.JobFailed
		e := model.NewKind(model.KindLanguageRejected, fmt.Sprintf(
			"The uploaded audio does not appear to be in the target language (%s).", s.gate.Target()))
		e.DetectedLanguage = res.Gate.DetectedLanguage
		log.Info(ctx, "audio rejected", logger.String("detected", res.Gate.DetectedLanguage))
		return res, e
	}

	res.EstimatedChords = PlaceholderProgression()
	title := LeadSheetTitle(in.OriginalName)
	data, err := musicxml.Synthesize(title, res.EstimatedChords, s.sheet)
	if err != nil {
		res.Job.Status = model.JobFailed
		return res, model.WrapKind(model.KindUnknown, "lead sheet synthesis failed", err)
	}

	path := filepath.Join(s.audioOutDir, workspace.StampedName(now, "_", title+leadSheetExt))
	if err := os.WriteFile(path, data, filePerm); err != nil {
		res.Job.Status = model.JobFailed
		return res, model.WrapKind(model.KindIO, "could not write lead sheet", err)
	}
	metrics.RecordLeadSheet()
	s.audio.Add(1)

	res.LeadSheetPath = path
	res.Job.Status = model.JobDone
	log.Info(ctx, "lead sheet written",
		logger.String("path", path),
		logger.Int("chords", len(res.EstimatedChords)),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

// LeadSheetTitle strips the extension from an upload name.
func LeadSheetTitle(name string) string {
	title := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.TrimSpace(title) == "" {
		return DefaultLeadSheetTitle
	}
	return title
}

// PlaceholderProgression returns a fresh copy of the progression every
// accepted song is given until audio chord estimation exists.
func PlaceholderProgression() []string {
	out := make([]string, len(placeholderProgression))
	copy(out, placeholderProgression)
	return out
}
