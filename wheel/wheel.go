// Package wheel implements a hierarchical timer wheel
// of 5 levels with 64 slots each.
// Timers are kept in an index-based arena, so arming and disarming
// don't allocate once the arena has grown to its working size.
package wheel

import "errors"

const (
	levelBits = 6
	levelSize = 1 << levelBits
	levelMask = levelSize - 1

	// Levels is the number of levels of the wheel.
	// Level 0 is the root with a granularity of a single tick,
	// every following level is 64 times coarser than the previous one.
	Levels = 5

	// MaxTimeout is the longest distance from the wheel's base
	// a timer can be armed for.
	MaxTimeout Tick = 1<<(levelBits*Levels) - 1
)

// ErrBeyondHorizon is returned by Wheel.Arm when the expiry
// is further away from the base than MaxTimeout.
var ErrBeyondHorizon = errors.New("wheel: expiry beyond horizon")

// Wheel is a hierarchical timer wheel.
// Arming and disarming are O(1), advancing is amortized O(1) per tick
// and skips empty ranges.
// A Wheel is not safe for concurrent use.
type Wheel struct {
	base   Tick
	arena  arena
	count  [Levels]int
	hint   Tick
	hintOK bool
	epoch  uint64
}

// New creates a new wheel based at now.
func New(now Tick) *Wheel {
	w := new(Wheel)
	w.Init(now)
	return w
}

// Init resets the wheel to be empty and based at now.
// Timers that were armed before are forgotten and
// behave as unarmed from then on.
func (w *Wheel) Init(now Tick) {
	w.arena.init(Levels * levelSize)
	w.count = [Levels]int{}
	w.epoch++
	w.base = now
	w.hint, w.hintOK = now, false
}

// Base returns the tick the wheel has been advanced to.
func (w *Wheel) Base() Tick { return w.base }

// Len returns the number of armed timers.
func (w *Wheel) Len() int {
	n := 0
	for _, c := range w.count {
		n += c
	}
	return n
}

// Arm arms t to expire at the given tick.
// An expiry at or before the base fires on the next advance.
// If t is already armed it's re-armed.
// Returns ErrBeyondHorizon if expire is further than MaxTimeout
// from the base, in which case t is left untouched.
func (w *Wheel) Arm(t *Timer, expire Tick) error {
	timeout := w.timeout(expire)
	if timeout > MaxTimeout {
		return ErrBeyondHorizon
	}
	if t.wheel != nil {
		t.wheel.Disarm(t)
	}
	t.expire = expire
	t.wheel, t.epoch = w, w.epoch
	t.node = w.arena.alloc(t)
	w.place(t.node, timeout)
	if w.hintOK && Before(expire, w.hint) {
		w.hint = expire
	}
	return nil
}

// ArmClamped is similar to Arm but clamps expire to
// the furthest tick the wheel can represent.
// Returns the effective expiry.
func (w *Wheel) ArmClamped(t *Timer, expire Tick) Tick {
	if w.timeout(expire) > MaxTimeout {
		expire = w.base + MaxTimeout
	}
	_ = w.Arm(t, expire)
	return expire
}

// Disarm removes t from the wheel and returns true.
// Returns false if t wasn't armed on w.
func (w *Wheel) Disarm(t *Timer) bool {
	if !w.owns(t) {
		return false
	}
	if w.hintOK && t.expire == w.hint {
		w.hintOK = false
	}
	i := t.node
	w.count[w.arena.nodes[i].level]--
	w.arena.unlink(i)
	w.arena.release(i)
	t.node, t.wheel = 0, nil
	return true
}

// AdvanceAndCollect moves the base forward to now and returns
// all timers that are due, in expiry order.
// Returned timers are unarmed and may be re-armed right away.
// Does nothing if now is before the base.
func (w *Wheel) AdvanceAndCollect(now Tick) (fired []*Timer) {
	if Before(now, w.base) {
		return nil
	}
	for {
		if w.count[0] > 0 {
			fired = w.collect(fired, head(0, int(w.base&levelMask)))
		}
		if w.base == now {
			break
		}
		step := Tick(1)
		if w.count[0] == 0 {
			lvl := w.lowestOccupied()
			if lvl == Levels {
				w.base = now
				break
			}
			span := Tick(1) << (levelBits * lvl)
			step = span - w.base&(span-1)
			if rem := now - w.base; step > rem {
				step = rem
			}
		}
		w.base += step
		if w.base&levelMask == 0 {
			w.cascade()
		}
	}
	if len(fired) > 0 {
		w.hintOK = false
	}
	return fired
}

// Process advances the wheel to now and invokes the callback
// of every fired timer exactly once.
// A timer re-armed by an earlier callback of the same batch is skipped.
// Returns the number of timers fired.
func (w *Wheel) Process(now Tick) (n int) {
	for _, t := range w.AdvanceAndCollect(now) {
		if t.Armed() {
			continue
		}
		n++
		if t.Callback != nil {
			t.Callback(t)
		}
	}
	return n
}

// NextDeadline returns the number of ticks from now until
// the earliest armed timer expires, 0 if it's already due.
// Returns MaxTimeout if no timer is armed.
// The result never exceeds the actual distance.
func (w *Wheel) NextDeadline(now Tick) Tick {
	e, ok := w.earliest()
	if !ok {
		return MaxTimeout
	}
	if !Before(now, e) {
		return 0
	}
	return e - now
}

// earliest returns the earliest expiry among all armed timers.
func (w *Wheel) earliest() (Tick, bool) {
	if w.hintOK {
		return w.hint, true
	}
	var (
		best  Tick
		found bool
	)
	for lvl := 0; lvl < Levels; lvl++ {
		if w.count[lvl] == 0 {
			continue
		}
		e, ok := w.levelEarliest(lvl)
		if ok && (!found || Before(e, best)) {
			best, found = e, true
		}
	}
	if found {
		w.hint, w.hintOK = best, true
	}
	return best, found
}

// levelEarliest scans lvl from its cursor for the first occupied slot
// and returns the earliest expiry within it.
// Slots of a level are ordered by time starting at the cursor,
// so the first occupied slot holds the level's minimum.
func (w *Wheel) levelEarliest(lvl int) (Tick, bool) {
	cur := int(w.base>>(levelBits*lvl)) & levelMask
	first := 1
	if lvl == 0 {
		first = 0
	}
	for j := first; j < first+levelSize; j++ {
		h := head(lvl, (cur+j)&levelMask)
		if w.arena.empty(h) {
			continue
		}
		i := w.arena.nodes[h].next
		best := w.arena.nodes[i].timer.expire
		for i = w.arena.nodes[i].next; i != h; i = w.arena.nodes[i].next {
			if e := w.arena.nodes[i].timer.expire; Before(e, best) {
				best = e
			}
		}
		return best, true
	}
	return 0, false
}

// timeout returns the distance from the base to expire,
// 0 if expire is at or before the base.
func (w *Wheel) timeout(expire Tick) Tick {
	if !Before(w.base, expire) {
		return 0
	}
	return expire - w.base
}

// place links node i into the slot covering timeout.
func (w *Wheel) place(i int32, timeout Tick) {
	lvl := 0
	for lvl < Levels-1 && timeout >= Tick(1)<<(levelBits*(lvl+1)) {
		lvl++
	}
	e := w.base + timeout
	slot := int(e>>(levelBits*lvl)) & levelMask
	w.arena.nodes[i].level = int8(lvl)
	w.arena.pushBack(head(lvl, slot), i)
	w.count[lvl]++
}

// cascade redistributes the coarser slots the base has just reached.
// It must be called whenever the root completes a cycle.
// Coarser levels go first so that entries moving down more than
// one level are placed by their true remaining distance at once.
func (w *Wheel) cascade() {
	top := 1
	for top < Levels-1 && (w.base>>(levelBits*top))&levelMask == 0 {
		top++
	}
	for lvl := top; lvl >= 1; lvl-- {
		h := head(lvl, int(w.base>>(levelBits*lvl))&levelMask)
		if w.arena.empty(h) {
			continue
		}
		for i := w.arena.detach(h); i != h; {
			next := w.arena.nodes[i].next
			w.count[lvl]--
			w.place(i, w.timeout(w.arena.nodes[i].timer.expire))
			i = next
		}
	}
}

// collect unlinks every timer of the list headed by h
// and appends it to fired.
func (w *Wheel) collect(fired []*Timer, h int32) []*Timer {
	for i := w.arena.detach(h); i != h; {
		next := w.arena.nodes[i].next
		t := w.arena.nodes[i].timer
		w.count[w.arena.nodes[i].level]--
		w.arena.release(i)
		t.node, t.wheel = 0, nil
		fired = append(fired, t)
		i = next
	}
	return fired
}

// lowestOccupied returns the lowest non-empty level above the root,
// Levels if there is none.
func (w *Wheel) lowestOccupied() int {
	for lvl := 1; lvl < Levels; lvl++ {
		if w.count[lvl] > 0 {
			return lvl
		}
	}
	return Levels
}

func (w *Wheel) owns(t *Timer) bool {
	return t.wheel == w && t.node != 0 && t.epoch == w.epoch
}

func head(lvl, slot int) int32 { return int32(1 + lvl*levelSize + slot) }
