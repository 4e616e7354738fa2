package multicast

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor runs posted functions on a single serial context, such as a UI thread.
// Functions posted to one Executor must run in the order they were posted.
type Executor interface {
	Post(fn func()) error
}

// ExecutorFunc adapts a host loop's post function to Executor.
type ExecutorFunc func(fn func()) error

// Post calls f(fn).
func (f ExecutorFunc) Post(fn func()) error {
	return f(fn)
}

// scheduler executes prepared calls according to their policy.
type scheduler struct {
	mu   sync.RWMutex
	main Executor

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func newScheduler(maxBackground int64) *scheduler {
	s := &scheduler{}
	if maxBackground > 0 {
		s.sem = semaphore.NewWeighted(maxBackground)
	}
	return s
}

func (s *scheduler) init(exec Executor) error {
	if exec == nil {
		return fmt.Errorf("%w: executor is nil", ErrSchedulerNotInitialized)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.main != nil {
		return fmt.Errorf("%w: main loop executor is already set", ErrAlreadyInitialized)
	}
	s.main = exec
	return nil
}

func (s *scheduler) executor() Executor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.main
}

// ready reports whether calls with policy p can be scheduled.
func (s *scheduler) ready(p Policy) error {
	if p == MainLoop && s.executor() == nil {
		return ErrSchedulerNotInitialized
	}
	return nil
}

// schedule runs fn under policy p. The returned error is only a scheduling
// failure; fn is expected to handle its own panics.
func (s *scheduler) schedule(p Policy, fn func()) error {
	switch p {
	case Inline:
		fn()
		return nil
	case Background:
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if s.sem != nil {
				_ = s.sem.Acquire(context.Background(), 1)
				defer s.sem.Release(1)
			}
			fn()
		}()
		return nil
	case MainLoop:
		exec := s.executor()
		if exec == nil {
			return ErrSchedulerNotInitialized
		}
		return exec.Post(fn)
	default:
		return fmt.Errorf("unknown policy %s", p)
	}
}

// wait blocks until every background call has returned.
// It must not race with a Background schedule made outside a running
// Background call; nested schedules happen before their parent's Done.
func (s *scheduler) wait() {
	s.wg.Wait()
}
