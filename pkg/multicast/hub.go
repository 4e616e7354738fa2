package multicast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/dmitrymomot/multicast/pkg/logger"
)

// Hub holds the listener registry, the scheduler and the multicaster cache.
// All methods are safe for concurrent use.
type Hub struct {
	registry  *registry
	scheduler *scheduler

	logger        *slog.Logger
	onFailure     FailureHandler
	executor      Executor
	maxBackground int64

	mu    sync.Mutex
	cache map[cacheKey]any
}

type strategy int

const (
	strategyForwarder strategy = iota
	strategyDynamic
)

type cacheKey struct {
	contract reflect.Type
	tag      string
	strategy strategy
}

// Pair is a listener with its tag, for RegisterPairs.
type Pair struct {
	Listener any
	Tag      string
}

// New creates a hub. MainLoop dispatch is unavailable until Init is called
// or WithExecutor is passed.
func New(opts ...Option) *Hub {
	h := &Hub{
		registry: newRegistry(),
		logger:   logger.Discard(),
		cache:    make(map[cacheKey]any),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.scheduler = newScheduler(h.maxBackground)
	h.scheduler.main = h.executor
	if h.onFailure == nil {
		h.onFailure = h.logFailure
	}
	return h
}

// Init hands the hub the serial executor used for MainLoop calls.
// It may be called once; later calls return ErrAlreadyInitialized and keep the first executor.
func (h *Hub) Init(exec Executor) error {
	return h.scheduler.init(exec)
}

// Register adds an untagged listener.
func (h *Hub) Register(listener any) error {
	return h.RegisterTagged(listener, "")
}

// RegisterTagged adds a listener with a tag. Registering the same listener again replaces its tag.
func (h *Hub) RegisterTagged(listener any, tag string) error {
	key, err := validateListener(listener)
	if err != nil {
		return err
	}
	h.registry.put(key, listener, tag)
	return nil
}

// RegisterAll adds untagged listeners. Nothing is registered if any listener is invalid.
func (h *Hub) RegisterAll(listeners ...any) error {
	pairs := make([]Pair, len(listeners))
	for i, l := range listeners {
		pairs[i] = Pair{Listener: l}
	}
	return h.RegisterPairs(pairs...)
}

// RegisterPairs adds listeners with their tags. Nothing is registered if any listener is invalid.
func (h *Hub) RegisterPairs(pairs ...Pair) error {
	keys := make([]any, len(pairs))
	var errs []error
	for i, p := range pairs {
		key, err := validateListener(p.Listener)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		keys[i] = key
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for i, p := range pairs {
		h.registry.put(keys[i], p.Listener, p.Tag)
	}
	return nil
}

// Unregister removes a listener. Unknown listeners are ignored.
func (h *Hub) Unregister(listener any) {
	h.UnregisterAll(listener)
}

// UnregisterAll removes every given listener. Unknown listeners are ignored.
func (h *Hub) UnregisterAll(listeners ...any) {
	keys := make([]any, 0, len(listeners))
	for _, l := range listeners {
		if key, err := identityOf(l); err == nil {
			keys = append(keys, key)
		}
	}
	h.registry.remove(keys...)
}

// Clear removes all listeners.
func (h *Hub) Clear() {
	h.registry.clear()
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	return h.registry.len()
}

// Tags returns the tag of every registered listener keyed by listener, for diagnostics.
// Untagged listeners map to the empty string. Map-kind listeners are omitted.
func (h *Hub) Tags() map[any]string {
	entries := h.registry.snapshot()
	out := make(map[any]string, len(entries))
	for _, e := range entries {
		if reflect.TypeOf(e.listener).Comparable() {
			out[e.listener] = e.tag
		}
	}
	return out
}

// Wait blocks until all Background calls scheduled so far have returned,
// including Background calls they dispatch themselves.
// It is meant for shutdown: stop dispatching Background calls from other
// goroutines before calling Wait, or Wait may return before those calls run.
func (h *Hub) Wait() {
	h.scheduler.wait()
}

func validateListener(listener any) (any, error) {
	key, err := identityOf(listener)
	if err != nil {
		return nil, err
	}
	if !implementsAny(reflect.TypeOf(listener)) {
		return nil, fmt.Errorf("%w: %T implements no declared contract", ErrInvalidListener, listener)
	}
	return key, nil
}

// dispatch runs the multicast algorithm for one method call. call performs the
// actual invocation on one listener. Validation errors are returned before any
// listener is reached; listener failures go to the failure handler.
func (h *Hub) dispatch(c *Contract, m Method, tag string, call func(listener any)) error {
	if m.Excluded {
		return ignoredError(c, m.Name)
	}
	if err := h.scheduler.ready(m.Policy); err != nil {
		return fmt.Errorf("%w: %s.%s requires Init", err, c.Name(), m.Name)
	}

	for _, l := range h.registry.lookup(c.typ, tag) {
		listener := l
		job := func() { h.invoke(c, m, tag, listener, call) }
		if err := h.scheduler.schedule(m.Policy, job); err != nil {
			h.fail(c, m, tag, listener, err)
		}
	}
	return nil
}

func (h *Hub) invoke(c *Contract, m Method, tag string, listener any, call func(any)) {
	defer func() {
		if r := recover(); r != nil {
			h.fail(c, m, tag, listener, panicError(r))
		}
	}()
	call(listener)
}

func (h *Hub) fail(c *Contract, m Method, tag string, listener any, cause error) {
	h.onFailure(context.Background(), &DispatchError{
		Contract: c.Name(),
		Method:   m.Name,
		Tag:      tag,
		Policy:   m.Policy,
		Listener: listener,
		Cause:    cause,
	})
}

func (h *Hub) logFailure(ctx context.Context, err *DispatchError) {
	h.logger.ErrorContext(ctx, "listener call failed",
		logger.Contract(err.Contract),
		logger.Method(err.Method),
		logger.Tag(err.Tag),
		logger.Policy(err.Policy),
		logger.Listener(err.Listener),
		logger.Error(err.Cause))
}

// cached returns the multicaster stored under key, building it on a miss.
// Builds run outside the lock; when two builds race, the first stored wins.
func (h *Hub) cached(key cacheKey, build func() (any, error)) (any, error) {
	h.mu.Lock()
	if v, ok := h.cache[key]; ok {
		h.mu.Unlock()
		return v, nil
	}
	h.mu.Unlock()

	v, err := build()
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.cache[key]; ok {
		return existing, nil
	}
	h.cache[key] = v

	h.logger.Debug("multicaster created",
		logger.Contract(key.contract.String()),
		logger.Tag(key.tag))
	return v, nil
}

func ignoredError(c *Contract, method string) error {
	return fmt.Errorf("%w: %s.%s", ErrIgnoredMethod, c.Name(), method)
}
