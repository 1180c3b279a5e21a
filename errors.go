package coop

import (
	"errors"
	"fmt"
)

var (
	// ErrTerminated is returned by Loop after Exit was called.
	ErrTerminated = errors.New("coop: scheduler terminated")

	// ErrAlreadyWaiting is returned by Wait if the task
	// already has a pending wait.
	ErrAlreadyWaiting = errors.New("coop: task is already waiting")

	// ErrNotRunning is returned by Wait, Sleep and Yield
	// when called on a task that isn't the running one.
	ErrNotRunning = errors.New("coop: task is not running")

	// ErrTaskWaiting is returned by Run for a task parked in a wait,
	// such a task is resumed by the loop only.
	ErrTaskWaiting = errors.New("coop: task is waiting")

	// ErrTaskRunning is returned by Run for the running task
	// and by Close when called from within a task.
	ErrTaskRunning = errors.New("coop: task is running")

	// ErrTaskDone is returned by Run for a task that has returned.
	ErrTaskDone = errors.New("coop: task is done")

	// ErrHangup is returned by Wait when the awaited file descriptor
	// reports an error or hangup condition.
	ErrHangup = errors.New("coop: hangup on file descriptor")

	// ErrFDBusy is returned by Wait when another task already
	// awaits the same file descriptor.
	ErrFDBusy = errors.New("coop: file descriptor awaited by another task")
)

// TaskError is a failure of a task's function,
// either a returned error or a recovered panic.
type TaskError struct {
	ID   TaskID
	Name string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("coop: task %s (%s): %v", e.ID, e.Name, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
