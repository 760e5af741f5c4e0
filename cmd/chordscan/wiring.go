package main

import (
	"github.com/okian/chordscan/internal/adapters/audiotags"
	"github.com/okian/chordscan/internal/adapters/http/api"
	"github.com/okian/chordscan/internal/adapters/langid"
	"github.com/okian/chordscan/internal/adapters/musicxml"
	"github.com/okian/chordscan/internal/adapters/omr"
	service "github.com/okian/chordscan/internal/app"
	"github.com/okian/chordscan/internal/config"
	"github.com/okian/chordscan/internal/domain/langgate"
	"github.com/okian/chordscan/pkg/logger"
)

func newRecognizer(cfg *config.Config) *omr.Adapter {
	return omr.New(
		omr.WithEnginePath(cfg.EnginePath),
		omr.WithJavaPath(cfg.JavaPath),
		omr.WithTimeout(cfg.EngineTimeout()),
		omr.WithFallbackDirs(cfg.EngineFallbackDirs),
		omr.WithDiagnosticsLimit(cfg.DiagnosticsLimit),
	)
}

func newGate(cfg *config.Config) *langgate.Gate {
	return langgate.New(
		audiotags.NewReader(),
		langid.New(langid.WithMinLength(cfg.LanguageMinLength)),
		langgate.WithTarget(cfg.TargetLanguage),
		langgate.WithTextLimit(cfg.MetadataTextLimit),
	)
}

func leadSheetOptions(cfg *config.Config) musicxml.Options {
	return musicxml.Options{
		BeatsPerBar: cfg.BeatsPerBar,
		Divisions:   cfg.Divisions,
		Tempo:       cfg.Tempo,
		KeyFifths:   cfg.KeyFifths,
	}
}

func newService(cfg *config.Config) *service.Service {
	return service.New(
		service.WithLogger(logger.Get().Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithOMROutDir(cfg.OMROutDir),
		service.WithAudioOutDir(cfg.AudioOutDir),
		service.WithEngineTimeout(cfg.EngineTimeout()),
		service.WithRecognizer(newRecognizer(cfg)),
		service.WithGate(newGate(cfg)),
		service.WithLeadSheetOptions(leadSheetOptions(cfg)),
	)
}

func apiOptions(cfg *config.Config) []api.Option {
	return []api.Option{
		api.WithUploadsDir(cfg.UploadsDir),
		api.WithScoreMaxBytes(cfg.ScoreMaxBytes),
		api.WithAudioMaxBytes(cfg.AudioMaxBytes),
		api.WithFrontendOrigin(cfg.FrontendOrigin),
		api.WithLogger(logger.Get().Named("api")),
	}
}
