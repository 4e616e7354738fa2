package multicast

import (
	"fmt"
	"reflect"
)

// Multicaster is the generic dynamic forwarder of contract T. It needs no
// generated code: calls name the method and pass arguments as values, which are
// checked against the contract method table and forwarded through reflection.
type Multicaster[T any] struct {
	hub      *Hub
	contract *Contract
	tag      string
}

// Dynamic returns the untagged dynamic multicaster of contract T.
func Dynamic[T any](hub *Hub) (*Multicaster[T], error) {
	return DynamicTagged[T](hub, "")
}

// DynamicTagged returns the dynamic multicaster of contract T restricted to listeners
// registered with tag. An empty tag is the same as Dynamic.
func DynamicTagged[T any](hub *Hub, tag string) (*Multicaster[T], error) {
	c, err := ContractOf[T]()
	if err != nil {
		return nil, err
	}
	if err := c.checkVoid(); err != nil {
		return nil, err
	}

	v, err := hub.cached(cacheKey{contract: c.typ, tag: tag, strategy: strategyDynamic}, func() (any, error) {
		return &Multicaster[T]{hub: hub, contract: c, tag: tag}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Multicaster[T]), nil
}

// Contract returns the contract metadata.
func (mc *Multicaster[T]) Contract() *Contract { return mc.contract }

// Tag returns the tag filter; empty means all listeners.
func (mc *Multicaster[T]) Tag() string { return mc.tag }

// WithTag returns a multicaster for the same contract filtered by tag.
// The result is not stored in the hub cache, so tags taken from untrusted
// input do not grow it.
func (mc *Multicaster[T]) WithTag(tag string) *Multicaster[T] {
	return &Multicaster[T]{hub: mc.hub, contract: mc.contract, tag: tag}
}

// Invoke multicasts method with args to every matching listener.
// It returns validation errors only; listener failures go to the hub failure handler.
// Variadic arguments follow direct call rules; wrap a trailing slice with Spread
// to pass it as the variadic slice.
//
// Example:
//
//	mc, _ := multicast.Dynamic[Notify](hub)
//	err := mc.Invoke("OnEvent", 42)
func (mc *Multicaster[T]) Invoke(method string, args ...any) error {
	fn, err := mc.Method(method)
	if err != nil {
		return err
	}
	return fn(args...)
}

// Method resolves method once and returns a function that multicasts it.
func (mc *Multicaster[T]) Method(method string) (func(args ...any) error, error) {
	m, ok := mc.contract.Method(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, mc.contract.Name(), method)
	}
	if m.Excluded {
		return nil, ignoredError(mc.contract, m.Name)
	}

	return func(args ...any) error {
		in, spread, err := m.arguments(args)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", mc.contract.Name(), m.Name, err)
		}
		return mc.hub.dispatch(mc.contract, m, mc.tag, func(l any) {
			recv := reflect.New(mc.contract.typ).Elem()
			recv.Set(reflect.ValueOf(l))
			fn := recv.Method(m.Index)
			if spread {
				fn.CallSlice(in)
				return
			}
			fn.Call(in)
		})
	}, nil
}

// SpreadArg passes a slice as the whole variadic parameter of a dynamic call,
// like f(xs...) in a direct call. Build it with Spread.
type SpreadArg struct {
	slice any
}

// Spread marks slice as the variadic slice itself. Without it every trailing
// argument is one element, even a slice or nil, exactly as in a direct call.
//
// Example:
//
//	mc.Invoke("Log", "%d-%d", 1, 2)                        // Log("%d-%d", 1, 2)
//	mc.Invoke("Log", "%d-%d", multicast.Spread([]any{1, 2})) // Log("%d-%d", []any{1, 2}...)
func Spread(slice any) SpreadArg {
	return SpreadArg{slice: slice}
}

// Slice returns the wrapped slice.
func (s SpreadArg) Slice() any { return s.slice }

// arguments converts args to call values. spread reports that the last argument is
// the variadic slice itself and the call must use CallSlice.
func (m Method) arguments(args []any) ([]reflect.Value, bool, error) {
	n := len(m.In)

	if len(args) > 0 {
		if s, ok := args[len(args)-1].(SpreadArg); ok {
			if !m.Variadic {
				return nil, false, fmt.Errorf("%w: Spread used with a non-variadic method", ErrInvalidArguments)
			}
			if len(args) != n {
				return nil, false, fmt.Errorf("%w: want %d argument(s) with Spread, got %d", ErrInvalidArguments, n, len(args))
			}
			in, err := argValues(append(args[:n-1:n-1], s.slice), m.In)
			return in, true, err
		}
	}

	if !m.Variadic {
		if len(args) != n {
			return nil, false, fmt.Errorf("%w: want %d argument(s), got %d", ErrInvalidArguments, n, len(args))
		}
		in, err := argValues(args, m.In)
		return in, false, err
	}

	if len(args) < n-1 {
		return nil, false, fmt.Errorf("%w: want at least %d argument(s), got %d", ErrInvalidArguments, n-1, len(args))
	}

	types := make([]reflect.Type, len(args))
	copy(types, m.In[:n-1])
	elem := m.In[n-1].Elem()
	for i := n - 1; i < len(args); i++ {
		types[i] = elem
	}
	in, err := argValues(args, types)
	return in, false, err
}

func argValues(args []any, types []reflect.Type) ([]reflect.Value, error) {
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, err := argValue(a, types[i])
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %w", ErrInvalidArguments, i, err)
		}
		in[i] = v
	}
	return in, nil
}

func argValue(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", t)
	}

	v := reflect.ValueOf(a)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), t)
	}
	return v, nil
}
