package relay

import "errors"

var (
	ErrFailedToParseURL   = errors.New("relay: failed to parse redis connection string")
	ErrRedisNotReady      = errors.New("relay: redis did not become ready within the given time period")
	ErrHealthcheckFailed  = errors.New("relay: redis healthcheck failed")
	ErrPublish            = errors.New("relay: failed to publish envelope")
	ErrSubscribe          = errors.New("relay: failed to subscribe")
	ErrSubscriptionClosed = errors.New("relay: subscription channel closed")
	ErrEncodeEnvelope     = errors.New("relay: failed to encode envelope")
	ErrDecodeEnvelope     = errors.New("relay: failed to decode envelope")
	ErrUnboundContract    = errors.New("relay: contract is not bound")
)
