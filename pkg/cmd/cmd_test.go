package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	name string
	ran  int
}

func (s *stubCommand) Name() string        { return s.name }
func (s *stubCommand) Description() string { return "stub " + s.name }
func (s *stubCommand) Run(ctx context.Context, inv *Invocation) error {
	s.ran++
	return nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubCommand{name: "poll"}))
	require.NoError(t, r.Register(&stubCommand{name: "help"}))

	c, ok := r.Get("POLL")
	require.True(t, ok)
	assert.Equal(t, "poll", c.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_RejectsDuplicatesAndEmptyNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubCommand{name: "poll"}))

	err := r.Register(&stubCommand{name: "Poll"})
	assert.ErrorIs(t, err, ErrDuplicateCommand)

	assert.Error(t, r.Register(&stubCommand{name: "  "}))
	assert.Panics(t, func() { r.MustRegister(&stubCommand{name: "poll"}) })
}

func TestRegistry_GetAllSorted(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"ping", "help", "poll"} {
		r.MustRegister(&stubCommand{name: n})
	}

	var names []string
	for _, c := range r.GetAll() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"help", "ping", "poll"}, names)
}

func TestApplyOrderAndRoot(t *testing.T) {
	inner := &stubCommand{name: "poll"}
	var order []string

	tag := func(label string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, label)
				return c.Run(ctx, inv)
			})
		}
	}

	wrapped := Apply(inner, tag("first"), nil, tag("second"))
	require.NoError(t, wrapped.Run(context.Background(), &Invocation{}))

	assert.Equal(t, []string{"second", "first"}, order)
	assert.Equal(t, 1, inner.ran)
	assert.Same(t, inner, Root(wrapped))
	assert.Equal(t, "poll", wrapped.Name())
	assert.Equal(t, "stub poll", wrapped.Description())
}

func TestWrappedWithoutRunFuncDelegates(t *testing.T) {
	inner := &stubCommand{name: "ping"}
	w := &Wrapped{Inner: inner}
	require.NoError(t, w.Run(context.Background(), &Invocation{}))
	assert.Equal(t, 1, inner.ran)
}

type describer interface{ Description() string }

func TestAs(t *testing.T) {
	inner := &stubCommand{name: "poll"}
	wrapped := Apply(inner, func(c Command) Command { return Wrap(c, c.Run) })

	s, ok := As[*stubCommand](wrapped)
	require.True(t, ok)
	assert.Same(t, inner, s)

	d, ok := As[describer](wrapped)
	require.True(t, ok)
	assert.Equal(t, "stub poll", d.Description())

	_, ok = As[*Wrapped](wrapped)
	assert.False(t, ok)
}
