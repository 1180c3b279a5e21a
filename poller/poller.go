// Package poller adapts the operating system's readiness notification
// facility (epoll on Linux) to the interface the scheduler drives:
// register, modify and unregister file descriptor interest,
// and wait for ready events for a bounded duration.
//
// A poller is meant to be driven by a single goroutine.
// Only Wake may be called concurrently.
package poller

import "errors"

// Events is a set of readiness events.
type Events uint32

const (
	// EventRead indicates the file descriptor is ready for reading.
	EventRead Events = 1 << iota
	// EventWrite indicates the file descriptor is ready for writing.
	EventWrite
	// EventError indicates an error condition on the file descriptor.
	EventError
	// EventHangup indicates the peer closed its end.
	EventHangup
)

// Failed returns true if either the error or the hangup bit is set.
func (e Events) Failed() bool { return e&(EventError|EventHangup) != 0 }

// Event is a single readiness notification.
type Event struct {
	FD     int
	Events Events
}

// DefaultMaxEvents is the default number of events a single Wait
// call returns at most.
const DefaultMaxEvents = 128

var (
	// ErrNotRegistered is returned by Modify for a file descriptor
	// the poller doesn't know about.
	ErrNotRegistered = errors.New("poller: fd not registered")
	// ErrClosed is returned by any operation on a closed poller.
	ErrClosed = errors.New("poller: closed")
	// ErrUnsupported is returned on platforms without an implementation.
	ErrUnsupported = errors.New("poller: unsupported platform")
)
