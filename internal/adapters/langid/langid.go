// Package langid identifies the natural language of short texts.
package langid

import (
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"

	"github.com/okian/chordscan/internal/domain/model"
)

const defaultMinLength = 10

// Detector wraps whatlanggo with a minimum text length.
type Detector struct {
	minLength    int
	reliableOnly bool
	options      whatlanggo.Options
}

// New creates a Detector.
func New(opts ...Option) *Detector {
	d := &Detector{minLength: defaultMinLength}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the ISO 639-3 code for text, or "und" when the text is
// shorter than the minimum length or cannot be classified.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < d.minLength {
		return model.UndeterminedLanguage
	}
	info := whatlanggo.DetectWithOptions(text, d.options)
	if d.reliableOnly && !info.IsReliable() {
		return model.UndeterminedLanguage
	}
	code := info.Lang.Iso6393()
	if code == "" {
		return model.UndeterminedLanguage
	}
	return code
}
