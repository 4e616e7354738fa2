package multicast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/multicast/pkg/logger"
)

// SerialLoop is an Executor that runs posted functions one at a time, in post order,
// on a single goroutine. Its queue is unbounded, so Post never blocks.
//
// Example:
//
//	loop := multicast.NewSerialLoop()
//	hub := multicast.New()
//	_ = hub.Init(loop)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(loop.Run(ctx))
type SerialLoop struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	started bool
	signal  chan struct{}
	done    chan struct{}

	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// LoopOption configures a SerialLoop.
type LoopOption func(*SerialLoop)

// WithLoopShutdownTimeout sets how long Stop waits for queued functions to drain.
func WithLoopShutdownTimeout(d time.Duration) LoopOption {
	return func(l *SerialLoop) {
		if d > 0 {
			l.shutdownTimeout = d
		}
	}
}

// WithLoopLogger sets the logger used for loop lifecycle and recovered panics.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *SerialLoop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewSerialLoop creates a stopped serial loop. Functions posted before Start are kept
// and run once the loop starts.
func NewSerialLoop(opts ...LoopOption) *SerialLoop {
	l := &SerialLoop{
		signal:          make(chan struct{}, 1),
		done:            make(chan struct{}),
		shutdownTimeout: 30 * time.Second,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post enqueues fn. It returns ErrLoopClosed once the loop is stopping.
func (l *SerialLoop) Post(fn func()) error {
	if fn == nil {
		return nil
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	l.notify()
	return nil
}

// Pending returns the number of queued functions not yet started.
func (l *SerialLoop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Start launches the loop goroutine. The loop stops when ctx is cancelled or Stop is called,
// after running every function already queued.
func (l *SerialLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrLoopAlreadyStarted
	}
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.started = true
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "serial loop started")

	go l.run(ctx)
	return nil
}

// Stop closes the loop for new posts and waits for queued functions to finish.
// It returns an error if draining exceeds the shutdown timeout.
func (l *SerialLoop) Stop() error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return ErrLoopNotStarted
	}
	l.closed = true
	l.mu.Unlock()

	l.notify()

	select {
	case <-l.done:
		l.logger.Info("serial loop stopped")
		return nil
	case <-time.After(l.shutdownTimeout):
		l.logger.Warn("serial loop shutdown timeout exceeded",
			slog.Duration("timeout", l.shutdownTimeout),
			slog.Int("pending", l.Pending()))
		return fmt.Errorf("serial loop shutdown timeout exceeded after %s", l.shutdownTimeout)
	}
}

// Run returns a function for errgroup: it starts the loop, waits for ctx, then stops.
func (l *SerialLoop) Run(ctx context.Context) func() error {
	return func() error {
		if err := l.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		if err := l.Stop(); err != nil && !errors.Is(err, ErrLoopNotStarted) {
			return err
		}
		return nil
	}
}

// Done is closed after the loop goroutine exits.
func (l *SerialLoop) Done() <-chan struct{} {
	return l.done
}

func (l *SerialLoop) notify() {
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *SerialLoop) next() (func(), bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false, l.closed
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true, l.closed
}

func (l *SerialLoop) run(ctx context.Context) {
	defer close(l.done)

	for {
		fn, ok, closed := l.next()
		if ok {
			l.exec(ctx, fn)
			continue
		}
		if closed {
			return
		}

		select {
		case <-l.signal:
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.mu.Unlock()
		}
	}
}

func (l *SerialLoop) exec(ctx context.Context, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.ErrorContext(ctx, "serial loop function panicked",
				slog.Any("panic", r))
		}
	}()
	fn()
}
