// Package keepalive implements the daemon's workload:
// periodically writing a payload to a device or fifo
// such as a watchdog.
package keepalive

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/romshark/coop"
	"github.com/romshark/coop/config"

	"github.com/spf13/afero"
)

// fder is implemented by files backed by a file descriptor.
type fder interface {
	Fd() uintptr
}

// Task returns a task function writing k.Payload to k.Path
// every k.Interval until the task is canceled.
// On devices and fifos every write first waits for the file
// to become writable for at most k.Timeout,
// a timeout skips the write.
// k.MagicClose is written before the file is closed,
// both when the task ends and when the scheduler unwinds it.
func Task(
	afs afero.Fs,
	k config.Keepalive,
	log *logiface.Logger[logiface.Event],
) coop.TaskFunc {
	return func(t *coop.Task, _ []any) error {
		f, err := afs.OpenFile(k.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", k.Path, err)
		}
		defer f.Close()
		defer func() {
			if len(k.MagicClose) < 1 {
				return
			}
			if _, err := f.Write(k.MagicClose); err != nil {
				log.Warning().
					Str("keepalive", k.Name).
					Str("path", k.Path).
					Err(err).
					Log("writing magic close failed")
			}
		}()

		fd, err := pollable(f, k)
		if err != nil {
			return err
		}

		for {
			write := true
			if fd >= 0 {
				st, err := t.Wait(fd, coop.DirWrite, k.Timeout)
				switch st {
				case coop.StatusCanceled:
					return nil
				case coop.StatusError:
					return fmt.Errorf("waiting for %s: %w", k.Path, err)
				case coop.StatusTimedOut:
					log.Warning().
						Str("keepalive", k.Name).
						Str("path", k.Path).
						Dur("timeout", k.Timeout).
						Log("not writable in time")
					write = false
				}
			}
			if write {
				if _, err := f.Write(k.Payload); err != nil {
					return fmt.Errorf("writing %s: %w", k.Path, err)
				}
				log.Debug().
					Str("keepalive", k.Name).
					Int("bytes", len(k.Payload)).
					Log("keepalive written")
			}

			st, err := t.Sleep(k.Interval)
			switch st {
			case coop.StatusCanceled:
				return nil
			case coop.StatusError:
				return err
			}
		}
	}
}

// pollable returns the file descriptor of f if writes
// should wait for it, -1 otherwise.
// Regular files are always writable and can't be polled.
func pollable(f afero.File, k config.Keepalive) (int, error) {
	if k.Timeout <= 0 {
		return -1, nil
	}
	fi, err := f.Stat()
	if err != nil {
		return -1, fmt.Errorf("stat %s: %w", k.Path, err)
	}
	if fi.Mode()&(fs.ModeCharDevice|fs.ModeNamedPipe|fs.ModeSocket) == 0 {
		return -1, nil
	}
	d, ok := f.(fder)
	if !ok {
		return -1, nil
	}
	return int(d.Fd()), nil
}
