package coop

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/romshark/coop/poller"
)

// DefaultTick is the default duration of a single wheel tick.
const DefaultTick = time.Millisecond

type options struct {
	clock     Clock
	mux       Multiplexer
	tick      time.Duration
	maxEvents int
	logger    *logiface.Logger[logiface.Event]
	clamp     bool
}

// Option configures a Scheduler.
type Option interface {
	apply(*options) error
}

type optionFunc func(*options) error

func (f optionFunc) apply(o *options) error { return f(o) }

// WithClock replaces the default monotonic clock.
// The clock must count ticks of the duration set by WithTick.
func WithClock(c Clock) Option {
	return optionFunc(func(o *options) error {
		if c == nil {
			return errors.New("coop: nil clock")
		}
		o.clock = c
		return nil
	})
}

// WithMultiplexer replaces the default epoll multiplexer.
// The scheduler doesn't close a multiplexer it didn't create.
func WithMultiplexer(m Multiplexer) Option {
	return optionFunc(func(o *options) error {
		if m == nil {
			return errors.New("coop: nil multiplexer")
		}
		o.mux = m
		return nil
	})
}

// WithTick sets the duration of a single tick, DefaultTick by default.
// Timeouts are rounded up to whole ticks.
func WithTick(d time.Duration) Option {
	return optionFunc(func(o *options) error {
		if d <= 0 {
			return errors.New("coop: tick must be positive")
		}
		o.tick = d
		return nil
	})
}

// WithMaxEvents sets the maximum number of events
// handled per loop iteration, poller.DefaultMaxEvents by default.
// Has no effect together with WithMultiplexer.
func WithMaxEvents(n int) Option {
	return optionFunc(func(o *options) error {
		if n < 1 {
			return errors.New("coop: max events must be positive")
		}
		o.maxEvents = n
		return nil
	})
}

// WithLogger sets the logger, logging is disabled by default.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return optionFunc(func(o *options) error {
		o.logger = l
		return nil
	})
}

// WithClampTimeouts makes waits with a timeout beyond
// wheel.MaxTimeout ticks expire at the horizon instead of
// failing with wheel.ErrBeyondHorizon.
func WithClampTimeouts(enabled bool) Option {
	return optionFunc(func(o *options) error {
		o.clamp = enabled
		return nil
	})
}

func resolveOptions(opts []Option) (*options, error) {
	o := &options{
		tick:      DefaultTick,
		maxEvents: poller.DefaultMaxEvents,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}
