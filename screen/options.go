package screen

import (
	"log/slog"

	"github.com/lixenwraith/termbridge/config"
	"github.com/lixenwraith/termbridge/status"
)

// DefaultMaxWorkers caps concurrently running async polls
const DefaultMaxWorkers = 64

// Option configures a Session at construction
type Option func(*Session)

// WithLogger sets the structured logger; the default discards
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxWorkers caps in-flight PollAsync workers; n < 1 is ignored
func WithMaxWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxWorkers = int64(n)
		}
	}
}

// WithMetrics publishes session and bridge counters into reg
func WithMetrics(reg *status.Registry) Option {
	return func(s *Session) {
		if reg != nil {
			s.metrics = reg
		}
	}
}

// WithConfig applies worker cap, modes and clear attributes from cfg.
// Fields that fail conversion keep their defaults; config.Load has already validated them.
func WithConfig(cfg config.Config) Option {
	return func(s *Session) {
		if cfg.MaxWorkers > 0 {
			s.maxWorkers = int64(cfg.MaxWorkers)
		}
		if mode, err := cfg.Input(); err == nil {
			s.inputMode = mode
		}
		if mode, err := cfg.Output(); err == nil {
			s.outputMode = mode
		}
		if fg, bg, err := cfg.ClearAttributes(); err == nil {
			s.clearFg, s.clearBg = fg, bg
		}
	}
}
