//go:build !linux

package poller

import "time"

// Epoll is unavailable on this platform,
// every method returns ErrUnsupported.
type Epoll struct{}

// New returns ErrUnsupported.
func New(maxEvents int) (*Epoll, error) { return nil, ErrUnsupported }

func (*Epoll) Register(fd int, events Events) error { return ErrUnsupported }
func (*Epoll) Modify(fd int, events Events) error { return ErrUnsupported }
func (*Epoll) Unregister(fd int) error { return ErrUnsupported }
func (*Epoll) Wait(timeout time.Duration) ([]Event, error) { return nil, ErrUnsupported }
func (*Epoll) Wake() error { return ErrUnsupported }
func (*Epoll) Close() error { return nil }
