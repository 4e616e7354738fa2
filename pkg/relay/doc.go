// Package relay bridges multicast calls between processes over Redis pub/sub.
//
// Every node wraps its local hub in a Relay. A call published with Publish is
// encoded as a JSON Envelope and sent on a shared channel; other nodes that
// bound the contract with Bind decode it and replay it into their hub through
// the dynamic forwarder, so tag filtering and scheduling policies apply there
// exactly as for local calls. A node never re-delivers its own envelopes.
//
// # Usage
//
//	cfg, err := relay.LoadConfig()
//	if err != nil {
//	    return err
//	}
//	client, err := relay.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	r := relay.NewFromConfig(client, hub, cfg, relay.WithLogger(log))
//	if err := relay.Bind[Notify](r); err != nil {
//	    return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(r.Run(ctx))
//
//	// later, on any node
//	err = relay.Publish[Notify](ctx, r, "A", "OnEvent", 42)
//
// Arguments travel as JSON, so parameter types must round-trip through
// encoding/json. Local delivery is not part of Publish; call the local
// multicaster as well when the publishing node should observe the call.
//
// # Configuration
//
// Config is read from MULTICAST_RELAY_* variables: REDIS_URL, CHANNEL,
// RETRY_ATTEMPTS, RETRY_INTERVAL, CONNECT_TIMEOUT and PUBLISH_TIMEOUT.
//
// # Errors
//
// Connection and transport failures are reported with the sentinels in this
// package joined with the go-redis error. Contract misuse surfaces the
// multicast sentinels (ErrInvalidContract, ErrUnknownMethod, ErrIgnoredMethod,
// ErrInvalidArguments).
package relay
