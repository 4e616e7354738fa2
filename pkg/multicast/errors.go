package multicast

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContract is returned when a type is not an interface or was never declared as a contract.
	ErrInvalidContract = errors.New("multicast: invalid contract")

	// ErrInvalidListener is returned when a listener is nil, has no usable identity,
	// or implements no declared contract.
	ErrInvalidListener = errors.New("multicast: invalid listener")

	// ErrIgnoredMethod is returned when an excluded contract method is called through a multicaster.
	ErrIgnoredMethod = errors.New("multicast: method is excluded from multicast dispatch")

	// ErrNonVoidReturn is returned when a multicaster is built for a contract with a method that returns values.
	ErrNonVoidReturn = errors.New("multicast: contract method must not return values")

	// ErrSchedulerNotInitialized is returned when a MainLoop call is made before Hub.Init.
	ErrSchedulerNotInitialized = errors.New("multicast: main loop executor is not initialized")

	// ErrDispatchInvocation marks failures raised inside a dispatched listener call.
	ErrDispatchInvocation = errors.New("multicast: listener invocation failed")

	// ErrForwarderNotFound is returned by Of when no precompiled forwarder is registered for a contract.
	ErrForwarderNotFound = errors.New("multicast: no forwarder registered for contract")

	// ErrUnknownMethod is returned when a method name is not part of the contract.
	ErrUnknownMethod = errors.New("multicast: unknown contract method")

	// ErrInvalidArguments is returned when dynamic call arguments do not match the method signature.
	ErrInvalidArguments = errors.New("multicast: invalid method arguments")

	// ErrAlreadyInitialized is returned when a one-time setup step is repeated.
	ErrAlreadyInitialized = errors.New("multicast: already initialized")

	// ErrNotInitialized is returned by Default before Init was called.
	ErrNotInitialized = errors.New("multicast: default hub is not initialized")

	// ErrLoopClosed is returned when posting to a stopped serial loop.
	ErrLoopClosed = errors.New("multicast: serial loop is closed")

	// ErrLoopAlreadyStarted is returned when starting a serial loop twice.
	ErrLoopAlreadyStarted = errors.New("multicast: serial loop already started")

	// ErrLoopNotStarted is returned when stopping a serial loop that was never started.
	ErrLoopNotStarted = errors.New("multicast: serial loop not started")
)

// DispatchError describes a failure of a single scheduled listener call.
// It matches ErrDispatchInvocation with errors.Is and unwraps to Cause.
type DispatchError struct {
	Contract string
	Method   string
	Tag      string
	Policy   Policy
	Listener any
	Cause    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("multicast: %s.%s on %T (policy %s, tag %q) failed: %v",
		e.Contract, e.Method, e.Listener, e.Policy, e.Tag, e.Cause)
}

func (e *DispatchError) Unwrap() []error {
	return []error{ErrDispatchInvocation, e.Cause}
}

// panicError converts a recovered value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
