// Package coop provides a single-threaded cooperative scheduler.
//
// Tasks park themselves in waits on a file descriptor, a timeout or both.
// The scheduler's Loop multiplexes all pending waits over one epoll
// instance and one hierarchical timer wheel (see package wheel)
// and resumes every task whose wait completed, one at a time.
//
// A pending wait can be suspended, resumed and canceled
// by whoever holds control:
//
//	s, err := coop.New()
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	_, err = s.Start("reader", func(t *coop.Task, _ []any) error {
//		st, err := t.Wait(fd, coop.DirRead, 5*time.Second)
//		if st == coop.StatusReady {
//			// read from fd
//		}
//		return err
//	})
//	if err != nil {
//		return err
//	}
//	return s.Loop(ctx)
package coop
