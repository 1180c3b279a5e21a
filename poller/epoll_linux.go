//go:build linux

package poller

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// Epoll is a level-triggered epoll poller with an eventfd
// used to interrupt a blocking Wait.
type Epoll struct {
	epfd   int
	wakefd int
	buf    []unix.EpollEvent
	out    []Event
	closed atomic.Bool
}

// New creates a new epoll instance returning at most maxEvents
// events per Wait. DefaultMaxEvents is used if maxEvents < 1.
func New(maxEvents int) (*Epoll, error) {
	if maxEvents < 1 {
		maxEvents = DefaultMaxEvents
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("creating epoll instance: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("creating eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("registering eventfd: %w", err)
	}
	return &Epoll{
		epfd:   epfd,
		wakefd: wakefd,
		buf:    make([]unix.EpollEvent, maxEvents),
		out:    make([]Event, 0, maxEvents),
	}, nil
}

// Register adds fd to the interest set.
// events may be zero to only make fd known to the poller.
func (p *Epoll) Register(fd int, events Events) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, events)
}

// Modify replaces the events fd is monitored for.
// Returns an error wrapping ErrNotRegistered if fd isn't registered.
func (p *Epoll) Modify(fd int, events Events) error {
	err := p.ctl(unix.EPOLL_CTL_MOD, fd, events)
	if errors.Is(err, unix.ENOENT) {
		return fmt.Errorf("%w: %w", ErrNotRegistered, err)
	}
	return err
}

// Unregister removes fd from the interest set.
func (p *Epoll) Unregister(fd int) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait blocks until at least one registered file descriptor is ready,
// the timeout elapses or Wake is called.
// A negative timeout blocks indefinitely.
// The returned slice is reused by the next call.
// Interrupted system calls return no events and no error.
func (p *Epoll) Wait(timeout time.Duration) ([]Event, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	n, err := unix.EpollWait(p.epfd, p.buf, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	p.out = p.out[:0]
	for i := 0; i < n; i++ {
		fd := int(p.buf[i].Fd)
		if fd == p.wakefd {
			p.drainWake()
			continue
		}
		p.out = append(p.out, Event{FD: fd, Events: fromEpoll(p.buf[i].Events)})
	}
	return p.out, nil
}

// Wake interrupts a blocking Wait.
// Safe for concurrent use.
func (p *Epoll) Wake() error {
	if p.closed.Load() {
		return ErrClosed
	}
	var b [8]byte
	b[0] = 1
	_, err := unix.Write(p.wakefd, b[:])
	if err == unix.EAGAIN {
		// Counter saturated, a wakeup is pending anyway.
		return nil
	}
	return err
}

// Close releases the epoll instance and the eventfd.
func (p *Epoll) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return errors.Join(unix.Close(p.wakefd), unix.Close(p.epfd))
}

func (p *Epoll) ctl(op, fd int, events Events) error {
	if p.closed.Load() {
		return ErrClosed
	}
	ev := unix.EpollEvent{Events: toEpoll(events), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, op, fd, &ev)
}

func (p *Epoll) drainWake() {
	var b [8]byte
	for {
		if _, err := unix.Read(p.wakefd, b[:]); err != nil {
			return
		}
	}
}

// timeoutMillis converts d to an epoll timeout rounding up,
// so that a sub-millisecond deadline doesn't turn into a busy loop.
func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > 1<<31-1 {
		return -1
	}
	return int(ms)
}

func toEpoll(events Events) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func fromEpoll(e uint32) Events {
	var events Events
	if e&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if e&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}
