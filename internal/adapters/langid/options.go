package langid

import "github.com/abadojack/whatlanggo"

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithMinLength sets the shortest text, in characters, that is classified.
func WithMinLength(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.minLength = n
		}
	}
}

// WithReliableOnly reports "und" for low-confidence detections.
func WithReliableOnly(enabled bool) Option {
	return func(d *Detector) { d.reliableOnly = enabled }
}

// WithCandidates restricts detection to the given ISO 639-3 codes.
// Unknown codes are ignored.
func WithCandidates(codes ...string) Option {
	return func(d *Detector) {
		wl := make(map[whatlanggo.Lang]bool, len(codes))
		for _, c := range codes {
			if lang := whatlanggo.CodeToLang(c); lang != -1 {
				wl[lang] = true
			}
		}
		if len(wl) > 0 {
			d.options.Whitelist = wl
		}
	}
}
