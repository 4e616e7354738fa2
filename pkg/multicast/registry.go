package multicast

import (
	"fmt"
	"reflect"
	"sync"
)

type entry struct {
	listener any
	tag      string
}

// registry stores listener entries keyed by listener identity.
// Entries keep their insertion position; re-registering only replaces the tag.
type registry struct {
	mu      sync.RWMutex
	index   map[any]int
	entries []entry
}

func newRegistry() *registry {
	return &registry{index: make(map[any]int)}
}

// refIdentity keys a listener by its dynamic type and the address it refers to.
type refIdentity struct {
	typ reflect.Type
	ptr uintptr
}

// identityOf returns the registry key of a listener.
// Only reference kinds (pointers, maps and channels) have an identity, so two
// distinct objects with equal state are distinct listeners. Pointers to
// zero-size types are rejected: distinct zero-size objects may share an address.
func identityOf(listener any) (any, error) {
	if listener == nil {
		return nil, fmt.Errorf("%w: listener is nil", ErrInvalidListener)
	}

	v := reflect.ValueOf(listener)
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil, fmt.Errorf("%w: listener %T is a nil pointer", ErrInvalidListener, listener)
		}
		if v.Type().Elem().Size() == 0 {
			return nil, fmt.Errorf("%w: listener %T points to a zero-size type and has no distinct address", ErrInvalidListener, listener)
		}
	case reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return nil, fmt.Errorf("%w: listener %T is nil", ErrInvalidListener, listener)
		}
	default:
		return nil, fmt.Errorf("%w: listener %T is a value; register a pointer", ErrInvalidListener, listener)
	}
	return refIdentity{typ: v.Type(), ptr: v.Pointer()}, nil
}

func (r *registry) put(key any, listener any, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[key]; ok {
		r.entries[i].tag = tag
		return
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, entry{listener: listener, tag: tag})
}

func (r *registry) remove(keys ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for _, key := range keys {
		i, ok := r.index[key]
		if !ok {
			continue
		}
		delete(r.index, key)
		r.entries[i].listener = nil
		removed = true
	}
	if !removed {
		return
	}

	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.listener == nil {
			continue
		}
		kept = append(kept, e)
	}
	clear(r.entries[len(kept):])
	r.entries = kept

	for i, e := range r.entries {
		key, _ := identityOf(e.listener)
		r.index[key] = i
	}
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.index)
	clear(r.entries)
	r.entries = r.entries[:0]
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// lookup returns the listeners implementing contract. An empty tag matches
// every entry; a non-empty tag matches entries with exactly that tag.
func (r *registry) lookup(contract reflect.Type, tag string) []any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []any
	for _, e := range r.entries {
		if tag != "" && e.tag != tag {
			continue
		}
		if reflect.TypeOf(e.listener).Implements(contract) {
			matches = append(matches, e.listener)
		}
	}
	return matches
}

// snapshot returns a copy of all entries in registry order.
func (r *registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entry, len(r.entries))
	copy(out, r.entries)
	return out
}
