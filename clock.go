package coop

import (
	"time"

	"github.com/romshark/coop/wheel"
)

// monotonic counts ticks of the given duration since its creation.
type monotonic struct {
	start time.Time
	tick  time.Duration
}

func newMonotonic(tick time.Duration) monotonic {
	return monotonic{start: time.Now(), tick: tick}
}

func (c monotonic) Now() wheel.Tick {
	return wheel.Tick(time.Since(c.start) / c.tick)
}

// ticks converts d to ticks rounding up.
func ticks(d, tick time.Duration) wheel.Tick {
	if d <= 0 {
		return 0
	}
	n := wheel.Tick(d / tick)
	if d%tick != 0 {
		n++
	}
	return n
}

// duration converts n ticks to a duration, saturating on overflow.
func duration(n wheel.Tick, tick time.Duration) time.Duration {
	if n > wheel.Tick(maxDuration/tick) {
		return maxDuration
	}
	return time.Duration(n) * tick
}

const maxDuration = time.Duration(1<<63 - 1)
