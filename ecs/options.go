package ecs

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures a SystemModule.
type Option func(m *SystemModule)

// WithLogger sets the logger used for structural misuse and load failures.
// The default is the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *SystemModule) {
		m.logger = logger
	}
}

// WithPrettyLog writes human readable logs to stderr.
func WithPrettyLog() Option {
	return func(m *SystemModule) {
		m.logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// WithSimulationRate sets the number of ticks per second used by Run.
// Non-positive rates are ignored.
func WithSimulationRate(hz float64) Option {
	return func(m *SystemModule) {
		if hz > 0 {
			m.simulationRate = hz
		}
	}
}

// WithWorkers lets the scheduler process up to n entities' pending components
// in parallel. Component hooks must then be safe to run concurrently across
// entities and must not change the hierarchy.
func WithWorkers(n int) Option {
	return func(m *SystemModule) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithTickChannel makes Run tick whenever ch delivers instead of at the
// simulation rate. Tests can pass a channel they control.
func WithTickChannel(ch <-chan time.Time) Option {
	return func(m *SystemModule) {
		m.tickChannel = ch
	}
}
