package wheel

// Tick is the wheel's unit of time.
// Ticks are expected to be monotonic, the wheel itself
// doesn't care what wall-clock duration a tick represents.
type Tick uint64

// Before reports whether a is before b.
// The comparison tolerates counter wraparound as long as
// both values are within half the counter range of each other.
func Before(a, b Tick) bool { return int64(b-a) > 0 }

// After reports whether a is after b.
func After(a, b Tick) bool { return Before(b, a) }

// Timer is a single timer that can be armed on a Wheel.
// The zero value is an unarmed timer ready for use.
// A Timer is usually embedded in a larger struct,
// Data may be used to point back at it.
type Timer struct {
	// Callback is invoked by Wheel.Process when the timer fires.
	// It may be nil.
	Callback func(*Timer)
	Data     any

	expire Tick
	wheel  *Wheel
	epoch  uint64
	node   int32
}

// Armed returns true if the timer is currently pending on a wheel.
func (t *Timer) Armed() bool { return t.wheel != nil && t.wheel.owns(t) }

// Expire returns the tick the timer was last armed for.
func (t *Timer) Expire() Tick { return t.expire }
