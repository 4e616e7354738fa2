package multicast_test

import (
	"context"
	"sync"

	"github.com/dmitrymomot/multicast/pkg/multicast"
)

// Notify is an Inline-only contract with a precompiled forwarder.
type Notify interface {
	OnEvent(id int)
}

// Ticker mixes every policy and an excluded method.
type Ticker interface {
	OnTick(n int)
	OnFrame(n int)
	OnSync(n int)
	Close() error
}

// Query has a forwarded method that returns a value.
type Query interface {
	Count() int
}

// Plain is declared but has no precompiled forwarder.
type Plain interface {
	Ping()
}

// Lines has a variadic method.
type Lines interface {
	Write(prefix string, lines ...string)
	Attach(target *recorder, meta map[string]string)
}

// Printer has a variadic method with an interface element type.
type Printer interface {
	Log(format string, args ...any)
}

// Stranger is never declared.
type Stranger interface {
	Hello()
}

var (
	_ = multicast.MustDeclare[Notify]()
	_ = multicast.MustDeclare[Ticker](
		multicast.WithPolicy("OnTick", multicast.Background),
		multicast.WithPolicy("OnFrame", multicast.MainLoop),
		multicast.WithPolicy("OnSync", multicast.Inline),
		multicast.Exclude("Close"),
	)
	_ = multicast.MustDeclare[Query]()
	_ = multicast.MustDeclare[Plain]()
	_ = multicast.MustDeclare[Lines]()
	_ = multicast.MustDeclare[Printer]()
)

type notifyForwarder struct {
	tag string
	hub *multicast.Hub
}

func (f *notifyForwarder) OnEvent(id int) {
	multicast.Forward(f.hub, f.tag, "OnEvent", func(l Notify) { l.OnEvent(id) })
}

type tickerForwarder struct {
	tag string
	hub *multicast.Hub
}

func (f *tickerForwarder) OnTick(n int) {
	multicast.Forward(f.hub, f.tag, "OnTick", func(l Ticker) { l.OnTick(n) })
}

func (f *tickerForwarder) OnFrame(n int) {
	multicast.Forward(f.hub, f.tag, "OnFrame", func(l Ticker) { l.OnFrame(n) })
}

func (f *tickerForwarder) OnSync(n int) {
	multicast.Forward(f.hub, f.tag, "OnSync", func(l Ticker) { l.OnSync(n) })
}

func (f *tickerForwarder) Close() error {
	multicast.Ignored[Ticker]("Close")
	return nil
}

type printerForwarder struct {
	tag string
	hub *multicast.Hub
}

func (f *printerForwarder) Log(format string, args ...any) {
	multicast.Forward(f.hub, f.tag, "Log", func(l Printer) { l.Log(format, args...) })
}

func init() {
	multicast.MustRegisterForwarder[Notify](func(tag string, hub *multicast.Hub) Notify {
		return &notifyForwarder{tag: tag, hub: hub}
	})
	multicast.MustRegisterForwarder[Ticker](func(tag string, hub *multicast.Hub) Ticker {
		return &tickerForwarder{tag: tag, hub: hub}
	})
	multicast.MustRegisterForwarder[Printer](func(tag string, hub *multicast.Hub) Printer {
		return &printerForwarder{tag: tag, hub: hub}
	})
}

// recorder implements Notify, Ticker, Plain, Lines and Printer and records every call.
type recorder struct {
	name string

	mu     sync.Mutex
	calls  []string
	events []int
	lines  []string
	logs   [][]any
	closed bool

	onCall func(method string, n int)
}

func newRecorder(name string) *recorder {
	return &recorder{name: name}
}

func (r *recorder) record(method string, n int) {
	r.mu.Lock()
	r.calls = append(r.calls, method)
	r.events = append(r.events, n)
	hook := r.onCall
	r.mu.Unlock()

	if hook != nil {
		hook(method, n)
	}
}

func (r *recorder) OnEvent(id int) { r.record("OnEvent", id) }
func (r *recorder) OnTick(n int)   { r.record("OnTick", n) }
func (r *recorder) OnFrame(n int)  { r.record("OnFrame", n) }
func (r *recorder) OnSync(n int)   { r.record("OnSync", n) }
func (r *recorder) Ping()          { r.record("Ping", 0) }

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) Write(prefix string, lines ...string) {
	r.mu.Lock()
	for _, l := range lines {
		r.lines = append(r.lines, prefix+l)
	}
	r.mu.Unlock()
	r.record("Write", len(lines))
}

func (r *recorder) Attach(target *recorder, meta map[string]string) {
	r.record("Attach", len(meta))
}

func (r *recorder) Log(format string, args ...any) {
	r.mu.Lock()
	r.logs = append(r.logs, args)
	r.mu.Unlock()
	r.record("Log", len(args))
}

func (r *recorder) Logs() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]any(nil), r.logs...)
}

func (r *recorder) Events() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.events...)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// onlyQuery implements Query and nothing else.
type onlyQuery struct{ n int }

func (q *onlyQuery) Count() int { return q.n }

// notifyFunc implements Notify but has no address identity.
type notifyFunc func(int)

func (f notifyFunc) OnEvent(id int) { f(id) }

// valueNotify implements Notify on a value receiver.
type valueNotify struct{ id string }

func (valueNotify) OnEvent(int) {}

// stateless implements Notify on a zero-size type.
type stateless struct{}

func (*stateless) OnEvent(int) {}

// counter counts OnEvent calls.
type counter struct{ hits int }

func (c *counter) OnEvent(int) { c.hits++ }

// notifyMap is a map-kind Notify listener.
type notifyMap map[string]int

func (m notifyMap) OnEvent(id int) { m["hits"]++ }

// manualLoop queues posted functions until drain is called.
type manualLoop struct {
	mu  sync.Mutex
	fns []func()
}

func (l *manualLoop) Post(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
	return nil
}

func (l *manualLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}

func (l *manualLoop) drain() {
	l.mu.Lock()
	fns := l.fns
	l.fns = nil
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// failures collects DispatchErrors from a hub failure handler.
type failures struct {
	mu   sync.Mutex
	errs []*multicast.DispatchError
}

func (f *failures) handle(_ context.Context, err *multicast.DispatchError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *failures) All() []*multicast.DispatchError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*multicast.DispatchError(nil), f.errs...)
}
