package coop_test

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/romshark/coop"
	"github.com/romshark/coop/poller"
	"github.com/romshark/coop/wheel"

	"github.com/stretchr/testify/require"
)

const tick = time.Millisecond

// errIdle is returned by scriptMux.Wait when asked to block forever
// with nothing left to do.
var errIdle = errors.New("idle")

type fakeClock struct{ now wheel.Tick }

func (c *fakeClock) Now() wheel.Tick { return c.now }

// step is a scripted multiplexer wait.
type step struct {
	do     func()
	events []poller.Event
}

// scriptMux is an in-memory multiplexer.
// Each Wait consumes one step, once there are none left
// Wait advances the clock by the timeout.
type scriptMux struct {
	clock        *fakeClock
	steps        []step
	registered   map[int]poller.Events
	timeouts     []time.Duration
	failModify   error
	failRegister error
	wakes        atomic.Int32
}

func newScriptMux(c *fakeClock) *scriptMux {
	return &scriptMux{clock: c, registered: make(map[int]poller.Events)}
}

func (m *scriptMux) Register(fd int, events poller.Events) error {
	if m.failRegister != nil {
		return m.failRegister
	}
	if _, ok := m.registered[fd]; ok {
		return fmt.Errorf("fd %d already registered", fd)
	}
	m.registered[fd] = events
	return nil
}

func (m *scriptMux) Modify(fd int, events poller.Events) error {
	if m.failModify != nil {
		return m.failModify
	}
	if _, ok := m.registered[fd]; !ok {
		return fmt.Errorf("fd %d: %w", fd, poller.ErrNotRegistered)
	}
	m.registered[fd] = events
	return nil
}

func (m *scriptMux) Unregister(fd int) error {
	if _, ok := m.registered[fd]; !ok {
		return fmt.Errorf("fd %d not registered", fd)
	}
	delete(m.registered, fd)
	return nil
}

func (m *scriptMux) Wait(timeout time.Duration) ([]poller.Event, error) {
	m.timeouts = append(m.timeouts, timeout)
	if len(m.steps) > 0 {
		s := m.steps[0]
		m.steps = m.steps[1:]
		if s.do != nil {
			s.do()
		}
		return s.events, nil
	}
	if timeout < 0 {
		return nil, errIdle
	}
	m.clock.now += wheel.Tick((timeout + tick - 1) / tick)
	return nil, nil
}

func (m *scriptMux) Wake() error {
	m.wakes.Add(1)
	return nil
}

func (m *scriptMux) Close() error { return nil }

// newScheduler creates a scheduler on a fake clock and a scriptMux.
func newScheduler(t *testing.T, opts ...coop.Option) (
	*coop.Scheduler, *scriptMux, *fakeClock,
) {
	t.Helper()
	c := new(fakeClock)
	m := newScriptMux(c)
	s, err := coop.New(append([]coop.Option{
		coop.WithClock(c),
		coop.WithMultiplexer(m),
		coop.WithTick(tick),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s, m, c
}

// logBuffer is a concurrency safe log sink.
type logBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func newLogger(w *logBuffer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField(""),
		),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()
}

// wakeup records the outcome of a wait.
type wakeup struct {
	Name   string
	Status coop.Status
	Err    error
	At     wheel.Tick
}

// sleeper returns a task function sleeping for d and recording
// its wakeup into woke.
func sleeper(woke *[]wakeup, d time.Duration) coop.TaskFunc {
	return func(t *coop.Task, _ []any) error {
		st, err := t.Sleep(d)
		*woke = append(*woke, wakeup{
			Name:   t.Name(),
			Status: st,
			Err:    err,
			At:     t.Scheduler().Now(),
		})
		return nil
	}
}

// reader returns a task function waiting for fd to become readable.
func reader(woke *[]wakeup, fd int, timeout time.Duration) coop.TaskFunc {
	return func(t *coop.Task, _ []any) error {
		st, err := t.Wait(fd, coop.DirRead, timeout)
		*woke = append(*woke, wakeup{
			Name:   t.Name(),
			Status: st,
			Err:    err,
			At:     t.Scheduler().Now(),
		})
		return nil
	}
}
