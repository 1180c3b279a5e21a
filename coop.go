package coop

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/romshark/coop/internal/registry"
	"github.com/romshark/coop/poller"
	"github.com/romshark/coop/wheel"

	"github.com/segmentio/ksuid"
)

// Clock provides the scheduler's notion of the current tick.
// Ticks must never go backwards.
type Clock interface {
	Now() wheel.Tick
}

// Multiplexer is the readiness notification facility
// the scheduler waits on. *poller.Epoll implements it.
type Multiplexer interface {
	// Register adds fd with the given interest.
	Register(fd int, events poller.Events) error
	// Modify replaces the interest of fd and returns an error
	// wrapping poller.ErrNotRegistered for an unknown fd.
	Modify(fd int, events poller.Events) error
	Unregister(fd int) error
	// Wait returns ready events, blocking for at most timeout.
	// A negative timeout blocks indefinitely.
	Wait(timeout time.Duration) ([]poller.Event, error)
	// Wake interrupts Wait, it must be safe for concurrent use.
	Wake() error
	Close() error
}

// Scheduler is a single-threaded cooperative scheduler.
// At most one of its tasks runs at any time, the others are parked
// in waits the loop resumes when their fd becomes ready or their
// timer fires.
//
// Except for Exit, methods must only be called by whoever currently
// holds control: the goroutine running Loop or the running task.
type Scheduler struct {
	clock  Clock
	tick   time.Duration
	mux    Multiplexer
	ownMux bool
	clamp  bool
	log    *logiface.Logger[logiface.Event]

	wheel   *wheel.Wheel
	tasks   *registry.Registry[*Task]
	fds     map[int]*waitContext
	current *Task
	closed  bool
	exit    atomic.Bool
}

// New creates a new scheduler.
// Unless WithMultiplexer is used it creates an epoll instance
// which Close releases.
func New(opts ...Option) (*Scheduler, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	if o.clock == nil {
		o.clock = newMonotonic(o.tick)
	}
	s := &Scheduler{
		clock: o.clock,
		tick:  o.tick,
		mux:   o.mux,
		clamp: o.clamp,
		log:   o.logger,
		tasks: registry.New[*Task](),
		fds:   make(map[int]*waitContext),
	}
	if s.mux == nil {
		p, err := poller.New(o.maxEvents)
		if err != nil {
			return nil, fmt.Errorf("creating multiplexer: %w", err)
		}
		s.mux, s.ownMux = p, true
	}
	s.wheel = wheel.New(s.clock.Now())
	return s, nil
}

// Now returns the current tick.
func (s *Scheduler) Now() wheel.Tick { return s.clock.Now() }

// Tick returns the duration of a single tick.
func (s *Scheduler) Tick() time.Duration { return s.tick }

// Len returns the number of tasks that haven't returned yet.
func (s *Scheduler) Len() int { return s.tasks.Len() }

// Pending returns the number of armed wait timers.
func (s *Scheduler) Pending() int { return s.wheel.Len() }

// Current returns the running task, nil if there is none.
func (s *Scheduler) Current() *Task { return s.current }

// Scan calls fn for every live task created after the given one
// in creation order until fn returns false.
// Starts from the first task if after is zero.
// Returns false if after doesn't exist.
func (s *Scheduler) Scan(after TaskID, fn func(*Task) bool) (ok bool) {
	return s.tasks.Scan(
		ksuid.KSUID(after),
		func(_ ksuid.KSUID, t *Task) bool { return fn(t) },
	)
}

// Task returns the live task with the given id.
func (s *Scheduler) Task(id TaskID) (*Task, bool) {
	return s.tasks.Get(ksuid.KSUID(id))
}

// Go creates a new task that starts with the first Run.
func (s *Scheduler) Go(name string, fn TaskFunc) *Task {
	id := ksuid.New()
	for s.tasks.Has(id) {
		id = ksuid.New()
	}
	t := &Task{
		id:     TaskID(id),
		name:   name,
		fn:     fn,
		s:      s,
		resume: make(chan resumeMsg),
		yield:  make(chan yieldMsg),
	}
	s.tasks.Set(id, t)
	return t
}

// Start creates a new task and runs it right away.
func (s *Scheduler) Start(name string, fn TaskFunc, args ...any) (*Task, error) {
	t := s.Go(name, fn)
	return t, s.Run(t, args...)
}

// Run transfers control to t until it waits, yields or returns.
// It starts a created task with args or continues a yielded one,
// Yield then returns args.
// A failure of the task is returned as *TaskError.
func (s *Scheduler) Run(t *Task, args ...any) error {
	if s.closed {
		return ErrTerminated
	}
	switch t.state {
	case taskWaiting:
		return ErrTaskWaiting
	case taskRunning:
		return ErrTaskRunning
	case taskDone:
		return ErrTaskDone
	}
	return s.transfer(t, resumeMsg{args: args})
}

// AddFD registers fd with the multiplexer without any interest.
// Waits on fd then only modify its interest and leave it
// registered afterwards.
// Error and hangup conditions are reported regardless of interest,
// so the loop unregisters such an fd once it fails
// while no wait is watching it.
func (s *Scheduler) AddFD(fd int) error {
	if err := s.mux.Register(fd, 0); err != nil {
		return fmt.Errorf("registering fd %d: %w", fd, err)
	}
	return nil
}

// DelFD unregisters fd from the multiplexer.
// A pending wait on fd can then only time out or be canceled.
func (s *Scheduler) DelFD(fd int) error {
	if wc := s.fds[fd]; wc != nil {
		wc.watching, wc.added = false, false
	}
	if err := s.mux.Unregister(fd); err != nil {
		return fmt.Errorf("unregistering fd %d: %w", fd, err)
	}
	return nil
}

// Exit makes Loop return ErrTerminated.
// Safe for concurrent use.
func (s *Scheduler) Exit() {
	s.exit.Store(true)
	s.interrupt()
}

// interrupt wakes a blocking multiplexer wait.
func (s *Scheduler) interrupt() {
	if err := s.mux.Wake(); err != nil && !errors.Is(err, poller.ErrClosed) {
		s.log.Warning().Err(err).Log("waking multiplexer failed")
	}
}

// Loop runs the scheduler until Exit is called, ctx is canceled
// or waiting on the multiplexer fails.
// Every iteration waits for the earliest timer deadline or
// the first ready fd, resumes the tasks of ready fds and then
// the tasks of fired timers.
// Failing tasks are logged and don't stop the loop.
func (s *Scheduler) Loop(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.interrupt)
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			s.exit.Store(false)
			return err
		}
		if s.exit.Swap(false) {
			return ErrTerminated
		}

		timeout := time.Duration(-1)
		if s.wheel.Len() > 0 {
			timeout = duration(s.wheel.NextDeadline(s.clock.Now()), s.tick)
		}
		events, err := s.mux.Wait(timeout)
		if err != nil {
			return fmt.Errorf("waiting for events: %w", err)
		}
		for _, ev := range events {
			s.dispatch(ev)
		}
		s.wheel.Process(s.clock.Now())
	}
}

// Close terminates all tasks that haven't returned
// and releases the multiplexer if the scheduler created it.
// Parked tasks are unwound, their deferred calls run.
func (s *Scheduler) Close() error {
	if s.current != nil {
		return ErrTaskRunning
	}
	if s.closed {
		return nil
	}
	s.closed = true

	var live []*Task
	s.tasks.Scan(ksuid.Nil, func(_ ksuid.KSUID, t *Task) bool {
		live = append(live, t)
		return true
	})
	for _, t := range live {
		if t.wait != nil {
			s.retire(t.wait)
		}
		if !t.started {
			t.state = taskDone
			s.tasks.Remove(ksuid.KSUID(t.id))
			continue
		}
		_ = s.transfer(t, resumeMsg{kill: true})
	}
	if s.ownMux {
		return s.mux.Close()
	}
	return nil
}

// dispatch resumes the task awaiting ev.FD.
// Events for fds without an armed wait are stale and ignored.
func (s *Scheduler) dispatch(ev poller.Event) {
	wc := s.fds[ev.FD]
	if wc == nil || !wc.watching {
		if ev.Events.Failed() {
			s.drop(ev.FD, wc)
		}
		return
	}
	if wc.state != waitArmed {
		return
	}
	if ev.Events.Failed() {
		s.wake(wc, StatusError, ErrHangup)
		return
	}
	s.wake(wc, StatusReady, nil)
}

// drop unregisters a failed fd no wait is watching.
// Error and hangup are level-triggered and repeat on every Wait.
// wc is the suspended or canceled wait on fd, if any.
func (s *Scheduler) drop(fd int, wc *waitContext) {
	if wc != nil {
		wc.added = false
	}
	if err := s.mux.Unregister(fd); err != nil {
		// Already gone, the event is stale.
		s.log.Debug().Int("fd", fd).Err(err).Log("dropping failed fd")
		return
	}
	s.log.Warning().Int("fd", fd).Log("dropped failed fd")
}

// wake ends wc and transfers control to its task.
func (s *Scheduler) wake(wc *waitContext, st Status, err error) {
	s.retire(wc)
	t := wc.task
	s.log.Debug().
		Str("task", t.id.String()).
		Stringer("status", st).
		Log("resuming task")
	if err := s.transfer(t, resumeMsg{status: st, err: err}); err != nil {
		s.logFailure(err)
	}
}

// transfer hands control to t and blocks until t hands it back.
func (s *Scheduler) transfer(t *Task, msg resumeMsg) error {
	prev := s.current
	s.current, t.state = t, taskRunning
	if t.started {
		t.resume <- msg
	} else {
		t.started = true
		go t.main(msg.args)
	}
	out := <-t.yield
	s.current = prev

	if !out.done {
		return nil
	}
	t.state = taskDone
	s.tasks.Remove(ksuid.KSUID(t.id))
	if out.err != nil {
		return &TaskError{ID: t.id, Name: t.name, Err: out.err}
	}
	return nil
}

func (s *Scheduler) checkRunning(t *Task) error {
	if s.closed {
		return ErrTerminated
	}
	if s.current != t {
		return ErrNotRunning
	}
	return nil
}

func (s *Scheduler) logFailure(err error) {
	var te *TaskError
	if !errors.As(err, &te) {
		s.log.Err().Err(err).Log("task failed")
		return
	}
	s.log.Err().
		Str("task", te.ID.String()).
		Str("name", te.Name).
		Err(te.Err).
		Log("task failed")
}
