package chord

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTemplates replaces the chord shapes the engine matches against.
func WithTemplates(templates []Template) Option {
	return func(e *Engine) {
		if len(templates) > 0 {
			e.templates = templates
		}
	}
}

// WithOmittedFifth toggles matching seventh chords voiced without their fifth.
func WithOmittedFifth(enabled bool) Option {
	return func(e *Engine) {
		e.omittedFifth = enabled
	}
}
