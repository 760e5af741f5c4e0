// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/chordscan/internal/adapters/http/swagger"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/internal/domain/types"
	"github.com/okian/chordscan/pkg/logger"
)

const (
	omrOutPrefix   = "/omr-out/"
	audioOutPrefix = "/audio-out/"
	uploadDirPerm  = 0o755
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// ScanScore runs a stored score upload through recognition and inference.
	ScanScore(ctx context.Context, in model.Input) (model.ScanResult, error)

	// ScoreAudio gates a stored audio upload and synthesizes its lead sheet.
	ScoreAudio(ctx context.Context, in model.Input) (model.AudioResult, error)

	// Output roots served read-only under /omr-out and /audio-out.
	OMROutDir() string
	AudioOutDir() string
}

// Server wires HTTP routes for the chord API.
type Server struct {
	deps Dependencies

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	scanHandler   *ScanHandler
	audioHandler  *AudioHandler

	uploadsDir     string
	scoreMaxBytes  int64
	audioMaxBytes  int64
	frontendOrigin string
	now            func() time.Time
	logger         logger.Logger
}

// NewServer creates the API server and the uploads directory.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) (*Server, error) {
	s := &Server{
		deps:           deps,
		uploadsDir:     defaultUploadsDir,
		scoreMaxBytes:  defaultScoreMaxBytes,
		audioMaxBytes:  defaultAudioMaxBytes,
		frontendOrigin: "*",
		now:            time.Now,
		logger:         logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(s.uploadsDir, uploadDirPerm); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUploadsDir, s.uploadsDir, err)
	}

	s.healthHandler = NewHealthHandler(s.now)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.scanHandler = &ScanHandler{deps: deps, intake: s.intake(scorePolicy(s.scoreMaxBytes)), logger: s.logger}
	s.audioHandler = &AudioHandler{deps: deps, intake: s.intake(audioPolicy(s.audioMaxBytes)), logger: s.logger}
	return s, nil
}

func (s *Server) intake(p uploadPolicy) *intake {
	return &intake{dir: s.uploadsDir, policy: p, now: s.now}
}

// Handler returns the full router: middleware, API routes, docs and the
// static output directories.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{s.frontendOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	s.Register(ctx, r)
	swagger.Register(ctx, r)
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Post("/omr/scan", MetricsMiddleware(s.scanHandler.HandleScan, "omr_scan"))
	r.Post("/chordscan/omr", MetricsMiddleware(s.scanHandler.HandleScan, "omr_scan"))
	r.Post("/audio/score", MetricsMiddleware(s.audioHandler.HandleAudio, "audio_score"))

	r.Handle(omrOutPrefix+"*", staticDir(omrOutPrefix, s.deps.OMROutDir()))
	r.Handle(audioOutPrefix+"*", staticDir(audioOutPrefix, s.deps.AudioOutDir()))
}

// staticDir serves files under root without directory listings.
func staticDir(prefix, root string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			writeError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError is used for failures that happen outside the pipelines.
func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	noteErrorCode(w, code)
	writeJSON(w, status, types.ErrorResponse{Code: code, Error: msg})
}

// writeFailure renders a pipeline error with its mapped status.
func writeFailure(ctx context.Context, w http.ResponseWriter, l logger.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed", logger.Error(err), logger.String("kind", model.KindOf(err).String()))
	}
	resp := types.NewErrorResponse(err)
	if errors.Is(err, ErrEmptyUpload) || errors.Is(err, ErrBadMultipart) {
		resp.Code = "bad_request"
	}
	noteErrorCode(w, resp.Code)
	writeJSON(w, status, resp)
}
