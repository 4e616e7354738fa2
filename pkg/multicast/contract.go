package multicast

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
)

// Policy selects where a dispatched listener call runs.
type Policy int

const (
	// Inline runs the call on the caller goroutine before the multicaster method returns.
	Inline Policy = iota
	// Background runs the call on a new goroutine. The caller does not wait.
	Background
	// MainLoop posts the call to the executor handed to Hub.Init.
	MainLoop
)

func (p Policy) String() string {
	switch p {
	case Inline:
		return "inline"
	case Background:
		return "background"
	case MainLoop:
		return "main_loop"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func (p Policy) valid() bool {
	return p >= Inline && p <= MainLoop
}

// Method describes one method of a contract.
type Method struct {
	Name     string
	Index    int // position in the contract interface method set
	In       []reflect.Type
	Out      []reflect.Type
	Variadic bool
	Policy   Policy
	Excluded bool
}

// Contract is the declared metadata of a listener interface.
type Contract struct {
	typ     reflect.Type
	methods []Method
	byName  map[string]int
}

// Type returns the contract interface type.
func (c *Contract) Type() reflect.Type { return c.typ }

// Name returns the short, package-qualified name of the contract (e.g. "app.Notify").
func (c *Contract) Name() string { return c.typ.String() }

// ID returns the fully-qualified identity of the contract: import path and type name.
func (c *Contract) ID() string { return c.typ.PkgPath() + "." + c.typ.Name() }

// Methods returns a copy of the method descriptors in method-set order.
func (c *Contract) Methods() []Method {
	return slices.Clone(c.methods)
}

// Method returns the descriptor of the named method.
func (c *Contract) Method(name string) (Method, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Method{}, false
	}
	return c.methods[i], true
}

// checkVoid reports the first forwarded method that returns values.
func (c *Contract) checkVoid() error {
	for _, m := range c.methods {
		if !m.Excluded && len(m.Out) > 0 {
			return fmt.Errorf("%w: %s.%s returns %d value(s)", ErrNonVoidReturn, c.Name(), m.Name, len(m.Out))
		}
	}
	return nil
}

func (c *Contract) sameAs(other *Contract) bool {
	return slices.EqualFunc(c.methods, other.methods, func(a, b Method) bool {
		return a.Name == b.Name && a.Policy == b.Policy && a.Excluded == b.Excluded
	})
}

// ContractOption configures per-method metadata of a declared contract.
type ContractOption func(*contractConfig)

type contractConfig struct {
	policies map[string]Policy
	excluded map[string]bool
}

// WithPolicy sets the scheduling policy of a contract method. Methods without a policy run Inline.
func WithPolicy(method string, p Policy) ContractOption {
	return func(c *contractConfig) {
		c.policies[method] = p
	}
}

// Exclude bars the named methods from multicast dispatch.
// Calling an excluded method through a multicaster fails with ErrIgnoredMethod.
func Exclude(methods ...string) ContractOption {
	return func(c *contractConfig) {
		for _, m := range methods {
			c.excluded[m] = true
		}
	}
}

type contractCatalog struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*Contract
}

var catalog = &contractCatalog{byType: make(map[reflect.Type]*Contract)}

// Declare marks the interface T as a dispatchable contract and records its per-method metadata.
// Declaring the same interface again with identical metadata returns the existing contract.
//
// Example:
//
//	type Notify interface {
//	    OnEvent(id int)
//	    Close() error
//	}
//
//	var _ = multicast.MustDeclare[Notify](
//	    multicast.WithPolicy("OnEvent", multicast.Background),
//	    multicast.Exclude("Close"),
//	)
func Declare[T any](opts ...ContractOption) (*Contract, error) {
	t := reflect.TypeFor[T]()
	c, err := buildContract(t, opts...)
	if err != nil {
		return nil, err
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()

	if existing, ok := catalog.byType[t]; ok {
		if existing.sameAs(c) {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %s is already declared with different metadata", ErrInvalidContract, t)
	}
	catalog.byType[t] = c
	return c, nil
}

// MustDeclare is like Declare but panics on error.
func MustDeclare[T any](opts ...ContractOption) *Contract {
	c, err := Declare[T](opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// ContractOf returns the declared contract of T.
func ContractOf[T any]() (*Contract, error) {
	return contractFor(reflect.TypeFor[T]())
}

func contractFor(t reflect.Type) (*Contract, error) {
	if t == nil || t.Kind() != reflect.Interface {
		return nil, fmt.Errorf("%w: %v is not an interface", ErrInvalidContract, t)
	}

	catalog.mu.RLock()
	c, ok := catalog.byType[t]
	catalog.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s is not declared", ErrInvalidContract, t)
	}
	return c, nil
}

// implementsAny reports whether t implements at least one declared contract.
func implementsAny(t reflect.Type) bool {
	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	for iface := range catalog.byType {
		if t.Implements(iface) {
			return true
		}
	}
	return false
}

func buildContract(t reflect.Type, opts ...ContractOption) (*Contract, error) {
	if t.Kind() != reflect.Interface {
		return nil, fmt.Errorf("%w: %s is not an interface", ErrInvalidContract, t)
	}
	if t.NumMethod() == 0 {
		return nil, fmt.Errorf("%w: %s has no methods", ErrInvalidContract, t)
	}

	cfg := &contractConfig{
		policies: make(map[string]Policy),
		excluded: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Contract{
		typ:     t,
		methods: make([]Method, 0, t.NumMethod()),
		byName:  make(map[string]int, t.NumMethod()),
	}

	for i := range t.NumMethod() {
		rm := t.Method(i)
		if !rm.IsExported() {
			return nil, fmt.Errorf("%w: %s has unexported method %s", ErrInvalidContract, t, rm.Name)
		}

		m := Method{
			Name:     rm.Name,
			Index:    i,
			Variadic: rm.Type.IsVariadic(),
			Policy:   cfg.policies[rm.Name],
			Excluded: cfg.excluded[rm.Name],
		}
		for j := range rm.Type.NumIn() {
			m.In = append(m.In, rm.Type.In(j))
		}
		for j := range rm.Type.NumOut() {
			m.Out = append(m.Out, rm.Type.Out(j))
		}
		if !m.Policy.valid() {
			return nil, fmt.Errorf("%w: %s.%s has unknown policy %s", ErrInvalidContract, t, m.Name, m.Policy)
		}

		c.byName[m.Name] = len(c.methods)
		c.methods = append(c.methods, m)
	}

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(cfg.policies)) {
		if _, ok := c.byName[name]; !ok {
			errs = append(errs, fmt.Errorf("policy set for unknown method %s", name))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.excluded)) {
		if _, ok := c.byName[name]; !ok {
			errs = append(errs, fmt.Errorf("unknown excluded method %s", name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{fmt.Errorf("%w: %s", ErrInvalidContract, t)}, errs...)...)
	}

	return c, nil
}
