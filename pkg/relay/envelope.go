package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/multicast/pkg/multicast"
)

// Envelope is the wire form of one multicast call.
type Envelope struct {
	ID       uuid.UUID         `json:"id"`
	Node     uuid.UUID         `json:"node"`
	Contract string            `json:"contract"`
	Tag      string            `json:"tag,omitempty"`
	Method   string            `json:"method"`
	Args     []json.RawMessage `json:"args"`
	SentAt   time.Time         `json:"sent_at"`
}

// encodeArgs encodes one raw message per method parameter. Trailing variadic
// arguments are packed into one array unless the last one is multicast.Spread,
// so the wire form is always the slice form.
func encodeArgs(m multicast.Method, args []any) ([]json.RawMessage, error) {
	n := len(m.In)

	if m.Variadic {
		var s multicast.SpreadArg
		spread := false
		if len(args) > 0 {
			s, spread = args[len(args)-1].(multicast.SpreadArg)
		}
		switch {
		case spread && len(args) != n:
			return nil, fmt.Errorf("%w: want %d argument(s) with Spread, got %d", multicast.ErrInvalidArguments, n, len(args))
		case spread:
			args = append(args[:n-1:n-1], s.Slice())
		case len(args) < n-1:
			return nil, fmt.Errorf("%w: want at least %d argument(s), got %d", multicast.ErrInvalidArguments, n-1, len(args))
		default:
			args = packVariadic(args, n)
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: want %d argument(s), got %d", multicast.ErrInvalidArguments, n, len(args))
	}

	raw := make([]json.RawMessage, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, errors.Join(ErrEncodeEnvelope, fmt.Errorf("argument %d: %w", i, err))
		}
		raw[i] = b
	}
	return raw, nil
}

// packVariadic folds the arguments from position n-1 on into a single slice.
func packVariadic(args []any, n int) []any {
	packed := make([]any, 0, n)
	packed = append(packed, args[:n-1]...)
	return append(packed, append([]any{}, args[n-1:]...))
}

// decodeArgs decodes raw into values of the method parameter types.
func decodeArgs(m multicast.Method, raw []json.RawMessage) ([]any, error) {
	if len(raw) != len(m.In) {
		return nil, fmt.Errorf("%w: want %d argument(s), got %d", multicast.ErrInvalidArguments, len(m.In), len(raw))
	}

	args := make([]any, len(raw))
	for i, r := range raw {
		v := reflect.New(m.In[i])
		if err := json.Unmarshal(r, v.Interface()); err != nil {
			return nil, errors.Join(ErrDecodeEnvelope, fmt.Errorf("argument %d: %w", i, err))
		}
		args[i] = v.Elem().Interface()
	}
	if m.Variadic {
		args[len(args)-1] = multicast.Spread(args[len(args)-1])
	}
	return args, nil
}
