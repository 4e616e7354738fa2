package multicast

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ForwarderFunc constructs a precompiled forwarder for contract T.
// The forwarder implements T; each forwarded method calls Forward with the
// given tag and hub, and each excluded method calls Ignored.
//
// A forwarder for
//
//	type Notify interface {
//	    OnEvent(id int)
//	    Close() error
//	}
//
// looks like:
//
//	type notifyForwarder struct {
//	    tag string
//	    hub *multicast.Hub
//	}
//
//	func (f *notifyForwarder) OnEvent(id int) {
//	    multicast.Forward(f.hub, f.tag, "OnEvent", func(l Notify) { l.OnEvent(id) })
//	}
//
//	func (f *notifyForwarder) Close() error {
//	    multicast.Ignored[Notify]("Close")
//	    return nil
//	}
//
//	func init() {
//	    multicast.MustRegisterForwarder(func(tag string, hub *multicast.Hub) Notify {
//	        return &notifyForwarder{tag: tag, hub: hub}
//	    })
//	}
type ForwarderFunc[T any] func(tag string, hub *Hub) T

var forwarders = struct {
	mu     sync.RWMutex
	byName map[string]func(string, *Hub) any
}{
	byName: make(map[string]func(string, *Hub) any),
}

var forwarderNameEscaper = strings.NewReplacer("_", "__", "/", "_s", ".", "_d", "-", "_h")

// ForwarderName returns the name a forwarder for the contract type t is registered under.
// The name is derived from the import path and type name and is unique per contract.
func ForwarderName(t reflect.Type) string {
	return "Forwarder$$" + forwarderNameEscaper.Replace(t.PkgPath()) + "$" + t.Name()
}

// RegisterForwarder registers the precompiled forwarder constructor of contract T.
// T does not have to be declared yet; it is validated when Of is called.
func RegisterForwarder[T any](fn ForwarderFunc[T]) error {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Interface {
		return fmt.Errorf("%w: %s is not an interface", ErrInvalidContract, t)
	}
	if fn == nil {
		return fmt.Errorf("%w: nil forwarder for %s", ErrInvalidContract, t)
	}

	name := ForwarderName(t)

	forwarders.mu.Lock()
	defer forwarders.mu.Unlock()

	if _, ok := forwarders.byName[name]; ok {
		return fmt.Errorf("%w: forwarder %s", ErrAlreadyInitialized, name)
	}
	forwarders.byName[name] = func(tag string, hub *Hub) any {
		return fn(tag, hub)
	}
	return nil
}

// MustRegisterForwarder is like RegisterForwarder but panics on error.
// Generated code calls it from an init function.
func MustRegisterForwarder[T any](fn ForwarderFunc[T]) {
	if err := RegisterForwarder(fn); err != nil {
		panic(err)
	}
}

func lookupForwarder(name string) (func(string, *Hub) any, bool) {
	forwarders.mu.RLock()
	defer forwarders.mu.RUnlock()
	fn, ok := forwarders.byName[name]
	return fn, ok
}

// Of returns the untagged multicaster of contract T, built from its registered forwarder.
// The multicaster reaches every listener implementing T regardless of tag.
func Of[T any](hub *Hub) (T, error) {
	return OfTagged[T](hub, "")
}

// OfTagged returns the multicaster of contract T restricted to listeners registered with tag.
// An empty tag is the same as Of.
func OfTagged[T any](hub *Hub, tag string) (T, error) {
	var zero T

	c, err := ContractOf[T]()
	if err != nil {
		return zero, err
	}
	if err := c.checkVoid(); err != nil {
		return zero, err
	}

	v, err := hub.cached(cacheKey{contract: c.typ, tag: tag, strategy: strategyForwarder}, func() (any, error) {
		name := ForwarderName(c.typ)
		build, ok := lookupForwarder(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s (%s)", ErrForwarderNotFound, c.Name(), name)
		}
		return build(tag, hub), nil
	})
	if err != nil {
		return zero, err
	}

	mc, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: forwarder for %s returned %T", ErrInvalidContract, c.Name(), v)
	}
	return mc, nil
}

// MustOf is like OfTagged but panics on error. Pass an empty tag for the untagged multicaster.
func MustOf[T any](hub *Hub, tag string) T {
	mc, err := OfTagged[T](hub, tag)
	if err != nil {
		panic(err)
	}
	return mc
}

// Forward multicasts one call of method on contract T. It is the body of every
// forwarded method of a precompiled forwarder: call receives each matching
// listener and performs the method call with the captured arguments.
//
// Validation failures (excluded method, main loop not initialized) panic with an
// error wrapping the matching sentinel, since contract methods return nothing.
func Forward[T any](hub *Hub, tag, method string, call func(T)) {
	c, err := ContractOf[T]()
	if err != nil {
		panic(err)
	}
	m, ok := c.Method(method)
	if !ok {
		panic(fmt.Errorf("%w: %s.%s", ErrUnknownMethod, c.Name(), method))
	}

	if err := hub.dispatch(c, m, tag, func(l any) { call(l.(T)) }); err != nil {
		panic(err)
	}
}

// Ignored panics with ErrIgnoredMethod. Forwarders call it from excluded methods.
func Ignored[T any](method string) {
	panic(fmt.Errorf("%w: %s.%s", ErrIgnoredMethod, reflect.TypeFor[T](), method))
}
