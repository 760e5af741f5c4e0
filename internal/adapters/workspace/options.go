package workspace

import "time"

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithClock overrides the time source used for job ids.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
