package coop

import (
	"fmt"
	"runtime"
	"time"

	"github.com/segmentio/ksuid"
)

// TaskID is a unique task identifier.
// Identifiers order by creation time at a resolution of one second.
type TaskID ksuid.KSUID

// String returns the stringified identifier.
func (id TaskID) String() string {
	return ksuid.KSUID(id).String()
}

// Created returns the time the task was created at.
func (id TaskID) Created() time.Time {
	return ksuid.KSUID(id).Time()
}

// TaskFunc is the body of a task.
// args are the arguments of the Run call that started it.
// A returned error or a panic is reported as a *TaskError.
type TaskFunc func(t *Task, args []any) error

type taskState int8

const (
	taskCreated taskState = iota
	taskRunning
	taskWaiting
	taskYielded
	taskDone
)

func (s taskState) String() string {
	switch s {
	case taskCreated:
		return "created"
	case taskRunning:
		return "running"
	case taskWaiting:
		return "waiting"
	case taskYielded:
		return "yielded"
	case taskDone:
		return "done"
	}
	return fmt.Sprintf("taskState(%d)", int8(s))
}

// Task is a resumable unit of work owned by a Scheduler.
// Its function runs on a goroutine of its own, but only while
// the scheduler has handed control over to it.
type Task struct {
	id      TaskID
	name    string
	fn      TaskFunc
	s       *Scheduler
	state   taskState
	started bool

	// wait is the task's pending wait, nil if there is none.
	wait *waitContext

	resume chan resumeMsg
	yield  chan yieldMsg
}

type resumeMsg struct {
	status Status
	err    error
	args   []any
	kill   bool
}

type yieldMsg struct {
	done bool
	err  error
}

// ID returns the unique identifier of the task.
func (t *Task) ID() TaskID { return t.id }

// Name returns the name the task was created with.
func (t *Task) Name() string { return t.name }

// Scheduler returns the scheduler owning the task.
func (t *Task) Scheduler() *Scheduler { return t.s }

// Waiting returns true if the task is parked in a wait.
func (t *Task) Waiting() bool { return t.state == taskWaiting }

// Done returns true if the task's function has returned.
func (t *Task) Done() bool { return t.state == taskDone }

// String returns the id, name and state of the task.
func (t *Task) String() string {
	return fmt.Sprintf("%s (%s, %s)", t.id, t.name, t.state)
}

// Yield hands control back to whoever ran the task and returns
// the arguments of the Run call continuing it.
// Returns ErrNotRunning if t isn't the running task.
func (t *Task) Yield() ([]any, error) {
	if err := t.s.checkRunning(t); err != nil {
		return nil, err
	}
	return t.park(taskYielded).args, nil
}

// main is the body of the task's goroutine.
func (t *Task) main(args []any) {
	var (
		err      error
		returned bool
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		} else if !returned {
			err = ErrTerminated
		}
		t.yield <- yieldMsg{done: true, err: err}
	}()
	err = t.fn(t, args)
	returned = true
}

// park blocks the task's goroutine until the scheduler transfers
// control back to it.
func (t *Task) park(state taskState) resumeMsg {
	t.state = state
	t.yield <- yieldMsg{}
	msg := <-t.resume
	if msg.kill {
		runtime.Goexit()
	}
	return msg
}
