// Package multicast provides typed publish/subscribe dispatch over Go interfaces.
//
// A contract is a Go interface declared with Declare. Listeners are values
// implementing one or more contracts and are registered with a Hub, optionally
// under a tag. A multicaster for a contract fans every call out to the matching
// listeners, scheduling each call by the policy declared for its method.
//
// # Declaring contracts
//
//	type Notify interface {
//	    OnEvent(id int)
//	    OnRefresh()
//	    Close() error
//	}
//
//	var _ = multicast.MustDeclare[Notify](
//	    multicast.WithPolicy("OnRefresh", multicast.MainLoop),
//	    multicast.Exclude("Close"),
//	)
//
// Methods run Inline unless a policy is set. Forwarded methods must not return
// values; excluded methods may, since they are never forwarded.
//
// # Registering listeners
//
//	hub := multicast.New(multicast.WithLogger(log))
//	_ = hub.RegisterTagged(screenA, "A")
//	_ = hub.Register(audit)
//	defer hub.UnregisterAll(screenA, audit)
//
// Listeners are pointers, maps or channels and are identified by address, so
// two listeners with equal state are still distinct. Plain values and pointers
// to zero-size types have no distinct address and are rejected with
// ErrInvalidListener. Registering a listener again replaces its tag.
//
// # Dispatching
//
// Two strategies produce multicasters with the same behavior.
//
// Precompiled forwarders implement the contract directly; they are emitted by a
// generator (or written by hand) and registered with RegisterForwarder:
//
//	n, err := multicast.OfTagged[Notify](hub, "A")
//	n.OnEvent(42) // reaches screenA only
//
// The dynamic forwarder needs no generated code:
//
//	mc, err := multicast.Dynamic[Notify](hub)
//	err = mc.Invoke("OnEvent", 42) // reaches screenA and audit
//
// An empty tag reaches every listener of the contract whatever its tag;
// a non-empty tag reaches only listeners registered with exactly that tag.
//
// # Policies
//
//   - Inline runs on the caller goroutine; the call returns after every listener ran.
//   - Background starts a goroutine per listener call; the caller does not wait.
//   - MainLoop posts to the Executor passed to Hub.Init, in post order.
//     SerialLoop is a ready-made Executor.
//
// # Errors
//
// Misuse fails immediately: ErrInvalidContract, ErrInvalidListener,
// ErrNonVoidReturn, ErrIgnoredMethod and ErrSchedulerNotInitialized. The
// dynamic forwarder returns them; precompiled forwarders panic with them,
// because contract methods have no result.
//
// A panic inside a listener never reaches the caller and never stops delivery
// to other listeners, for every policy. It is wrapped in a *DispatchError
// (matching ErrDispatchInvocation) and passed to the failure handler set with
// WithFailureHandler, which by default logs it.
package multicast
