package logger

import (
	"fmt"
	"log/slog"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Contract records a listener contract name under the key "contract".
func Contract(name string) slog.Attr {
	return slog.String("contract", name)
}

// Method records a contract method name under the key "method".
func Method(name string) slog.Attr {
	return slog.String("method", name)
}

// Tag records a listener tag under the key "tag".
// Untagged dispatch has no tag, so an empty tag returns an empty Attr.
func Tag(tag string) slog.Attr {
	if tag == "" {
		return slog.Attr{}
	}
	return slog.String("tag", tag)
}

// Policy records a scheduling policy under the key "policy".
func Policy(p fmt.Stringer) slog.Attr {
	if p == nil {
		return slog.Attr{}
	}
	return slog.String("policy", p.String())
}

// Listener records the dynamic type of a listener under the key "listener".
func Listener(l any) slog.Attr {
	if l == nil {
		return slog.Attr{}
	}
	return slog.String("listener", fmt.Sprintf("%T", l))
}

// Node records a relay node identifier under the key "node".
func Node(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("node", id)
}

// MessageID records the message identifier under the key "message_id".
// If id is nil, it returns an empty Attr.
func MessageID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("message_id", id)
}

// Channel records a pub/sub channel name under the key "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}
