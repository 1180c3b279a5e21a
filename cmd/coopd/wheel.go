package main

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/romshark/coop/wheel"

	"github.com/urfave/cli"
)

// wheelStats summarizes a diagnostics run.
type wheelStats struct {
	Timers     int
	Fired      int
	Violations int
	Steps      int
	Final      wheel.Tick
}

func wheelDiag(c *cli.Context) error {
	n, span := c.Int("timers"), c.Uint64("span")
	if n < 0 {
		return errors.New("timers must not be negative")
	}
	if span < 1 || span > uint64(wheel.MaxTimeout)+1 {
		return fmt.Errorf("span must be within [1, %d]", uint64(wheel.MaxTimeout)+1)
	}

	st := exerciseWheel(n, span, c.Uint64("seed"))
	fmt.Fprintf(c.App.Writer,
		"timers=%d fired=%d violations=%d steps=%d final=%d\n",
		st.Timers, st.Fired, st.Violations, st.Steps, st.Final,
	)
	if st.Violations > 0 || st.Fired != st.Timers {
		return errors.New("timer wheel misbehaved")
	}
	return nil
}

// exerciseWheel arms n timers at pseudo-random ticks in [0, span)
// and advances the wheel deadline by deadline.
// A timer firing before or after its expiry
// or out of expiry order counts as a violation.
func exerciseWheel(n int, span, seed uint64) (st wheelStats) {
	r := rand.New(rand.NewPCG(seed, seed))
	w := wheel.New(0)
	st.Timers = n

	var now, last wheel.Tick
	fire := func(t *wheel.Timer) {
		st.Fired++
		if t.Expire() != now || t.Expire() < last {
			st.Violations++
		}
		last = t.Expire()
	}
	timers := make([]wheel.Timer, n)
	for i := range timers {
		timers[i].Callback = fire
		_ = w.Arm(&timers[i], wheel.Tick(r.Uint64N(span)))
	}

	for w.Len() > 0 {
		now += w.NextDeadline(now)
		w.Process(now)
		st.Steps++
	}
	st.Final = now
	return st
}
