package multicast_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/multicast/pkg/multicast"
)

type emptyContract interface{}

type hiddenContract interface {
	ping()
}

type unknownPolicyContract interface {
	Run()
}

type conflictContract interface {
	Run()
}

type badPolicyContract interface {
	Run()
}

func TestDeclare(t *testing.T) {
	t.Run("records methods with default inline policy", func(t *testing.T) {
		c, err := multicast.ContractOf[Notify]()
		require.NoError(t, err)

		assert.Equal(t, reflect.TypeFor[Notify](), c.Type())
		assert.Equal(t, "multicast_test.Notify", c.Name())
		assert.Equal(t, "github.com/dmitrymomot/multicast/pkg/multicast_test.Notify", c.ID())

		m, ok := c.Method("OnEvent")
		require.True(t, ok)
		assert.Equal(t, multicast.Inline, m.Policy)
		assert.False(t, m.Excluded)
		assert.False(t, m.Variadic)
		require.Len(t, m.In, 1)
		assert.Equal(t, reflect.TypeFor[int](), m.In[0])
		assert.Empty(t, m.Out)
	})

	t.Run("records policies and exclusions", func(t *testing.T) {
		c, err := multicast.ContractOf[Ticker]()
		require.NoError(t, err)

		want := map[string]multicast.Policy{
			"OnTick":  multicast.Background,
			"OnFrame": multicast.MainLoop,
			"OnSync":  multicast.Inline,
			"Close":   multicast.Inline,
		}
		methods := c.Methods()
		require.Len(t, methods, len(want))
		for _, m := range methods {
			assert.Equal(t, want[m.Name], m.Policy, m.Name)
			assert.Equal(t, m.Name == "Close", m.Excluded, m.Name)
		}
	})

	t.Run("records variadic methods", func(t *testing.T) {
		c, err := multicast.ContractOf[Lines]()
		require.NoError(t, err)

		m, ok := c.Method("Write")
		require.True(t, ok)
		assert.True(t, m.Variadic)
		assert.Equal(t, reflect.TypeFor[[]string](), m.In[1])
	})

	t.Run("methods returns a copy", func(t *testing.T) {
		c, err := multicast.ContractOf[Notify]()
		require.NoError(t, err)

		methods := c.Methods()
		methods[0].Name = "Mutated"

		_, ok := c.Method("OnEvent")
		assert.True(t, ok)
	})

	t.Run("redeclaring with same metadata returns existing contract", func(t *testing.T) {
		first, err := multicast.ContractOf[Ticker]()
		require.NoError(t, err)

		again, err := multicast.Declare[Ticker](
			multicast.WithPolicy("OnTick", multicast.Background),
			multicast.WithPolicy("OnFrame", multicast.MainLoop),
			multicast.Exclude("Close"),
		)
		require.NoError(t, err)
		assert.Same(t, first, again)
	})

	t.Run("redeclaring with different metadata fails", func(t *testing.T) {
		_, err := multicast.Declare[conflictContract]()
		require.NoError(t, err)

		_, err = multicast.Declare[conflictContract](multicast.WithPolicy("Run", multicast.Background))
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})

	t.Run("rejects non-interface types", func(t *testing.T) {
		_, err := multicast.Declare[*recorder]()
		require.ErrorIs(t, err, multicast.ErrInvalidContract)

		_, err = multicast.Declare[int]()
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})

	t.Run("rejects interfaces without methods", func(t *testing.T) {
		_, err := multicast.Declare[emptyContract]()
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})

	t.Run("rejects unexported methods", func(t *testing.T) {
		_, err := multicast.Declare[hiddenContract]()
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})

	t.Run("rejects options for unknown methods", func(t *testing.T) {
		_, err := multicast.Declare[unknownPolicyContract](multicast.WithPolicy("Walk", multicast.Background))
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
		assert.Contains(t, err.Error(), "Walk")

		_, err = multicast.Declare[unknownPolicyContract](multicast.Exclude("Jump"))
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
		assert.Contains(t, err.Error(), "Jump")

		_, err = multicast.ContractOf[unknownPolicyContract]()
		require.ErrorIs(t, err, multicast.ErrInvalidContract, "failed declarations must not be recorded")
	})

	t.Run("rejects unknown policies", func(t *testing.T) {
		_, err := multicast.Declare[badPolicyContract](multicast.WithPolicy("Run", multicast.Policy(42)))
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})

	t.Run("must declare panics on error", func(t *testing.T) {
		assert.Panics(t, func() {
			multicast.MustDeclare[emptyContract]()
		})
	})
}

func TestContractOf(t *testing.T) {
	t.Run("undeclared interface", func(t *testing.T) {
		_, err := multicast.ContractOf[Stranger]()
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})

	t.Run("non-interface type", func(t *testing.T) {
		_, err := multicast.ContractOf[string]()
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})
}

func TestPolicy_String(t *testing.T) {
	tests := []struct {
		policy multicast.Policy
		want   string
	}{
		{multicast.Inline, "inline"},
		{multicast.Background, "background"},
		{multicast.MainLoop, "main_loop"},
		{multicast.Policy(9), "policy(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.String())
		})
	}
}

func TestForwarderName(t *testing.T) {
	t.Run("derived from import path and type name", func(t *testing.T) {
		name := multicast.ForwarderName(reflect.TypeFor[Notify]())
		assert.Equal(t, "Forwarder$$github_dcom_sdmitrymomot_smulticast_spkg_smulticast__test$Notify", name)
	})

	t.Run("unique per contract", func(t *testing.T) {
		names := map[string]bool{}
		for _, typ := range []reflect.Type{
			reflect.TypeFor[Notify](),
			reflect.TypeFor[Ticker](),
			reflect.TypeFor[Query](),
			reflect.TypeFor[Plain](),
			reflect.TypeFor[Lines](),
		} {
			name := multicast.ForwarderName(typ)
			assert.False(t, names[name], name)
			names[name] = true
		}
	})
}

func TestRegisterForwarder(t *testing.T) {
	t.Run("duplicate registration fails", func(t *testing.T) {
		err := multicast.RegisterForwarder[Notify](func(tag string, hub *multicast.Hub) Notify {
			return &notifyForwarder{tag: tag, hub: hub}
		})
		require.ErrorIs(t, err, multicast.ErrAlreadyInitialized)
	})

	t.Run("non-interface type fails", func(t *testing.T) {
		err := multicast.RegisterForwarder[*recorder](func(string, *multicast.Hub) *recorder {
			return nil
		})
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})

	t.Run("nil constructor fails", func(t *testing.T) {
		err := multicast.RegisterForwarder[Plain](nil)
		require.ErrorIs(t, err, multicast.ErrInvalidContract)
	})
}
