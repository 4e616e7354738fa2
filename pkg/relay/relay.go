package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/multicast/pkg/logger"
	"github.com/dmitrymomot/multicast/pkg/multicast"
)

// Client is the subset of the go-redis client used by the relay.
type Client interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Relay forwards multicast calls between processes sharing a pub/sub channel.
// Published calls are not delivered locally; received calls are replayed into
// the local hub through the dynamic forwarder of the bound contract.
type Relay struct {
	client         Client
	hub            *multicast.Hub
	channel        string
	node           uuid.UUID
	publishTimeout time.Duration
	logger         *slog.Logger

	mu     sync.RWMutex
	routes map[string]route
}

type route func(ctx context.Context, env Envelope) error

// Option configures a Relay.
type Option func(*Relay)

// WithChannel sets the pub/sub channel. Empty names are ignored.
func WithChannel(name string) Option {
	return func(r *Relay) {
		if name != "" {
			r.channel = name
		}
	}
}

// WithLogger sets the relay logger. The default logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNode overrides the random node id, e.g. to keep it stable across restarts.
func WithNode(id uuid.UUID) Option {
	return func(r *Relay) {
		if id != uuid.Nil {
			r.node = id
		}
	}
}

// WithPublishTimeout bounds each publish call. Zero disables the bound.
func WithPublishTimeout(d time.Duration) Option {
	return func(r *Relay) {
		if d >= 0 {
			r.publishTimeout = d
		}
	}
}

// New creates a relay delivering received calls into hub.
func New(client Client, hub *multicast.Hub, opts ...Option) *Relay {
	r := &Relay{
		client:         client,
		hub:            hub,
		channel:        "multicast",
		node:           uuid.New(),
		publishTimeout: 5 * time.Second,
		logger:         logger.Discard(),
		routes:         make(map[string]route),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig creates a relay using the channel and publish timeout of cfg.
func NewFromConfig(client Client, hub *multicast.Hub, cfg Config, opts ...Option) *Relay {
	base := []Option{WithChannel(cfg.Channel), WithPublishTimeout(cfg.PublishTimeout)}
	return New(client, hub, append(base, opts...)...)
}

// Node returns the relay node id stamped on published envelopes.
func (r *Relay) Node() uuid.UUID { return r.node }

// Channel returns the pub/sub channel name.
func (r *Relay) Channel() string { return r.channel }

// Bind lets the relay receive calls of contract T.
func Bind[T any](r *Relay) error {
	mc, err := multicast.Dynamic[T](r.hub)
	if err != nil {
		return err
	}
	c := mc.Contract()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[c.ID()] = func(ctx context.Context, env Envelope) error {
		m, ok := c.Method(env.Method)
		if !ok {
			return fmt.Errorf("%w: %s.%s", multicast.ErrUnknownMethod, c.Name(), env.Method)
		}
		args, err := decodeArgs(m, env.Args)
		if err != nil {
			return err
		}
		return mc.WithTag(env.Tag).Invoke(env.Method, args...)
	}
	return nil
}

// Publish sends one call of method on contract T to every other node.
//
// Example:
//
//	notify := multicast.MustOf[Notify](hub, "")
//	notify.OnEvent(42)
//	err := relay.Publish[Notify](ctx, r, "", "OnEvent", 42)
func Publish[T any](ctx context.Context, r *Relay, tag, method string, args ...any) error {
	mc, err := multicast.Dynamic[T](r.hub)
	if err != nil {
		return err
	}
	c := mc.Contract()

	m, ok := c.Method(method)
	if !ok {
		return fmt.Errorf("%w: %s.%s", multicast.ErrUnknownMethod, c.Name(), method)
	}
	if m.Excluded {
		return fmt.Errorf("%w: %s.%s", multicast.ErrIgnoredMethod, c.Name(), method)
	}

	raw, err := encodeArgs(m, args)
	if err != nil {
		return err
	}

	return r.publish(ctx, Envelope{
		ID:       uuid.New(),
		Node:     r.node,
		Contract: c.ID(),
		Tag:      tag,
		Method:   method,
		Args:     raw,
		SentAt:   time.Now().UTC(),
	})
}

func (r *Relay) publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Join(ErrEncodeEnvelope, err)
	}

	if r.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.publishTimeout)
		defer cancel()
	}

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return errors.Join(ErrPublish, err)
	}

	r.logger.DebugContext(ctx, "envelope published",
		logger.MessageID(env.ID),
		logger.Contract(env.Contract),
		logger.Method(env.Method),
		logger.Tag(env.Tag),
		logger.Channel(r.channel))
	return nil
}

// Deliver decodes one payload and dispatches it into the local hub.
// Envelopes published by this relay are skipped.
func (r *Relay) Deliver(ctx context.Context, payload []byte) error {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return errors.Join(ErrDecodeEnvelope, err)
	}
	if env.Node == r.node {
		return nil
	}

	r.mu.RLock()
	deliver, ok := r.routes[env.Contract]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnboundContract, env.Contract)
	}

	if err := deliver(ctx, env); err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "envelope delivered",
		logger.MessageID(env.ID),
		logger.Node(env.Node),
		logger.Contract(env.Contract),
		logger.Method(env.Method),
		logger.Tag(env.Tag))
	return nil
}

// Listen subscribes to the relay channel and delivers every message until ctx is done.
// Delivery errors are logged and do not stop listening.
func (r *Relay) Listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Join(ErrSubscribe, err)
	}

	r.logger.InfoContext(ctx, "relay listening",
		logger.Channel(r.channel),
		logger.Node(r.node))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return ErrSubscriptionClosed
			}
			if err := r.Deliver(ctx, []byte(msg.Payload)); err != nil {
				r.logger.WarnContext(ctx, "envelope dropped",
					logger.Channel(msg.Channel),
					logger.Error(err))
			}
		}
	}
}

// Run returns a function for errgroup that listens until ctx is done.
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(loop.Run(ctx))
//	g.Go(r.Run(ctx))
func (r *Relay) Run(ctx context.Context) func() error {
	return func() error {
		return r.Listen(ctx)
	}
}
