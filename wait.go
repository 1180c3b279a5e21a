package coop

import (
	"errors"
	"fmt"
	"time"

	"github.com/romshark/coop/poller"
	"github.com/romshark/coop/wheel"
)

// Status is the outcome of a wait.
type Status int8

const (
	// StatusReady means the file descriptor became ready.
	StatusReady Status = iota
	// StatusTimedOut means the timeout elapsed first.
	StatusTimedOut
	// StatusCanceled means the wait was canceled.
	StatusCanceled
	// StatusError means the wait failed, the error is returned alongside.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusTimedOut:
		return "timed out"
	case StatusCanceled:
		return "canceled"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int8(s))
}

// Direction is the readiness a wait is interested in.
type Direction int8

const (
	// DirRead waits for the fd to become readable.
	DirRead Direction = iota
	// DirWrite waits for the fd to become writable.
	DirWrite
)

func (d Direction) events() poller.Events {
	if d == DirWrite {
		return poller.EventWrite
	}
	return poller.EventRead
}

type waitState int8

const (
	waitCreated waitState = iota
	waitArmed
	waitSuspended
	waitCanceled
	waitResumed
)

// waitContext is a single pending wait of a task.
type waitContext struct {
	task   *Task
	fd     int
	events poller.Events

	// added is set when the wait registered fd itself
	// and must unregister it again.
	added bool
	// watching is set while the multiplexer monitors fd
	// for events.
	watching bool

	timer wheel.Timer
	timed bool
	state waitState

	// err is delivered instead of StatusTimedOut when the timer fires.
	err error
}

// Wait parks the running task until fd becomes ready for dir,
// the timeout elapses or the wait is canceled.
// A negative fd makes it a pure sleep,
// a negative timeout waits without a deadline.
// Timeouts are rounded up to whole ticks.
//
// The returned error is non-nil only with StatusError.
// It's ErrHangup if fd reported an error or hangup condition,
// wheel.ErrBeyondHorizon if the timeout can't be represented
// or the error of the multiplexer.
func (t *Task) Wait(fd int, dir Direction, timeout time.Duration) (Status, error) {
	s := t.s
	if err := s.checkRunning(t); err != nil {
		return StatusError, err
	}
	if t.wait != nil {
		return StatusError, ErrAlreadyWaiting
	}
	if fd >= 0 && s.fds[fd] != nil {
		return StatusError, ErrFDBusy
	}

	wc := &waitContext{task: t, fd: fd, state: waitCreated}
	wc.timer.Data = wc
	wc.timer.Callback = s.onTimer

	if fd >= 0 {
		wc.events = dir.events()
		if err := s.watch(wc); err != nil {
			return StatusError, err
		}
	}
	if timeout >= 0 {
		expire := s.clock.Now() + ticks(timeout, s.tick)
		if s.clamp {
			s.wheel.ArmClamped(&wc.timer, expire)
		} else if err := s.wheel.Arm(&wc.timer, expire); err != nil {
			s.retract(wc)
			return StatusError, err
		}
		wc.timed = true
	}

	wc.state = waitArmed
	t.wait = wc
	if fd >= 0 {
		s.fds[fd] = wc
	}
	s.log.Debug().
		Str("task", t.id.String()).
		Int("fd", fd).
		Dur("timeout", timeout).
		Log("task waiting")

	msg := t.park(taskWaiting)
	return msg.status, msg.err
}

// Sleep parks the running task for the given duration.
// Returns StatusTimedOut once it elapsed or StatusCanceled.
func (t *Task) Sleep(d time.Duration) (Status, error) {
	if d < 0 {
		d = 0
	}
	return t.Wait(-1, DirRead, d)
}

// Suspend takes the pending wait of t out of the loop's reach:
// its timer stops without losing its expiry and fd interest
// is retracted. Returns false if t has no armed wait.
func (s *Scheduler) Suspend(t *Task) bool {
	wc := t.wait
	if wc == nil || wc.state != waitArmed {
		return false
	}
	s.wheel.Disarm(&wc.timer)
	s.retract(wc)
	wc.state = waitSuspended
	return true
}

// Resume re-arms a wait suspended by Suspend.
// A timer whose expiry passed in the meantime fires on the next
// loop iteration. If fd interest can't be restored the task
// wakes up with StatusError on the next iteration.
// Returns false if t has no suspended wait.
func (s *Scheduler) Resume(t *Task) bool {
	wc := t.wait
	if wc == nil || wc.state != waitSuspended {
		return false
	}
	wc.state = waitArmed
	if wc.timed {
		if err := s.wheel.Arm(&wc.timer, wc.timer.Expire()); err != nil {
			s.fail(wc, err)
			return true
		}
	}
	if wc.fd >= 0 {
		if err := s.watch(wc); err != nil {
			s.fail(wc, err)
		}
	}
	return true
}

// Cancel ends the pending wait of t, which returns StatusCanceled
// on the next loop iteration.
// Returns false if t has no pending wait.
func (s *Scheduler) Cancel(t *Task) bool {
	wc := t.wait
	if wc == nil {
		return false
	}
	switch wc.state {
	case waitCanceled:
		return true
	case waitArmed:
		s.wheel.Disarm(&wc.timer)
		s.retract(wc)
	case waitSuspended:
	default:
		return false
	}
	wc.state = waitCanceled
	s.armNow(wc)
	return true
}

// onTimer is the callback of every wait's timer.
func (s *Scheduler) onTimer(tm *wheel.Timer) {
	wc := tm.Data.(*waitContext)
	switch wc.state {
	case waitArmed:
		if wc.err != nil {
			s.wake(wc, StatusError, wc.err)
			return
		}
		s.wake(wc, StatusTimedOut, nil)
	case waitCanceled:
		s.wake(wc, StatusCanceled, nil)
	}
}

// fail makes wc wake up with err on the next loop iteration.
func (s *Scheduler) fail(wc *waitContext, err error) {
	s.log.Warning().
		Str("task", wc.task.id.String()).
		Int("fd", wc.fd).
		Err(err).
		Log("resuming wait failed")
	s.retract(wc)
	wc.err = err
	s.armNow(wc)
}

// armNow arms the timer of wc to fire on the next loop iteration.
func (s *Scheduler) armNow(wc *waitContext) {
	// The base is never beyond the horizon.
	_ = s.wheel.Arm(&wc.timer, s.wheel.Base())
}

// watch makes the multiplexer monitor wc's fd,
// registering it if it isn't known yet.
func (s *Scheduler) watch(wc *waitContext) error {
	err := s.mux.Modify(wc.fd, wc.events)
	if errors.Is(err, poller.ErrNotRegistered) {
		if err = s.mux.Register(wc.fd, wc.events); err == nil {
			wc.added = true
		}
	}
	if err != nil {
		return fmt.Errorf("watching fd %d: %w", wc.fd, err)
	}
	wc.watching = true
	return nil
}

// retract stops monitoring wc's fd. A fd registered by the wait
// is unregistered, one registered through AddFD stays known
// with no interest.
func (s *Scheduler) retract(wc *waitContext) {
	if !wc.watching {
		return
	}
	wc.watching = false
	var err error
	if wc.added {
		wc.added = false
		err = s.mux.Unregister(wc.fd)
	} else {
		err = s.mux.Modify(wc.fd, 0)
	}
	if err != nil {
		s.log.Warning().
			Str("task", wc.task.id.String()).
			Int("fd", wc.fd).
			Err(err).
			Log("retracting fd interest failed")
	}
}

// retire releases everything wc holds ahead of waking its task.
func (s *Scheduler) retire(wc *waitContext) {
	s.wheel.Disarm(&wc.timer)
	s.retract(wc)
	if wc.fd >= 0 && s.fds[wc.fd] == wc {
		delete(s.fds, wc.fd)
	}
	wc.state = waitResumed
	wc.task.wait = nil
}
