// Package langgate decides whether an audio upload is in the target
// language, using embedded metadata or, failing that, the file name.
package langgate

import (
	"context"
	"regexp"
	"strings"

	"github.com/okian/chordscan/internal/adapters/audiotags"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/pkg/logger"
	"github.com/okian/chordscan/pkg/metrics"
)

const (
	defaultTarget    = "tgl"
	defaultTextLimit = 5000

	SourceMetadata = "metadata"
	SourceFilename = "filename"
)

var separator = regexp.MustCompile(`[_\-.]`)

// TagReader reads audio metadata.
type TagReader interface {
	Read(ctx context.Context, path string) (audiotags.Tags, error)
}

// Detector returns an ISO 639-3 code or "und".
type Detector interface {
	Detect(text string) string
}

// Gate accepts audio whose text is in a single target language.
type Gate struct {
	tags      TagReader
	detector  Detector
	target    string
	textLimit int
	logger    logger.Logger
}

// New creates a Gate.
func New(tags TagReader, detector Detector, opts ...Option) *Gate {
	g := &Gate{
		tags:      tags,
		detector:  detector,
		target:    defaultTarget,
		textLimit: defaultTextLimit,
		logger:    logger.Get().Named("langgate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Target returns the accepted language code.
func (g *Gate) Target() string { return g.target }

// Check classifies the audio at audioPath. Metadata read failures are
// logged and treated as no text.
func (g *Gate) Check(ctx context.Context, audioPath, originalName string) model.LanguageGateResult {
	text, source := g.text(ctx, audioPath, originalName)
	code := g.detector.Detect(text)
	if code == "" {
		code = model.UndeterminedLanguage
	}
	res := model.LanguageGateResult{
		DetectedLanguage: code,
		Accepted:         code != model.UndeterminedLanguage && code == g.target,
		Source:           source,
		Text:             text,
	}
	metrics.RecordLanguageGate(code, res.Accepted)
	g.logger.Info(ctx, "language gate",
		logger.String("detected", code),
		logger.String("target", g.target),
		logger.String("text_source", source),
		logger.Bool("accepted", res.Accepted),
	)
	return res
}

func (g *Gate) text(ctx context.Context, audioPath, originalName string) (string, string) {
	if g.tags != nil {
		tags, err := g.tags.Read(ctx, audioPath)
		if err != nil {
			g.logger.Debug(ctx, "metadata unavailable", logger.String("path", audioPath), logger.Error(err))
		} else if text := truncate(tags.Text(), g.textLimit); text != "" {
			return text, SourceMetadata
		}
	}
	return FilenameText(originalName), SourceFilename
}

// FilenameText turns a file name into words by replacing each '_', '-' and
// '.' with its own space, so runs of separators keep their length against
// the detector's minimum. Only the ends are trimmed.
func FilenameText(name string) string {
	return strings.TrimSpace(separator.ReplaceAllString(name, " "))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
