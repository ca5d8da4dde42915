// Package cmd is the transport-agnostic command core. Adapters decide how a
// command is reached (prefix message, slash command, AI tool call); the core
// only knows names, descriptions and Run.
package cmd

import "context"

// Invocation is what a runner passes to Run. Data holds the adapter's own
// context value, for Discord one of the *command.XxxContext types.
type Invocation struct {
	Args []string
	Data any
}

type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Middleware decorates a command, usually through Wrap.
type Middleware func(Command) Command

// Apply wraps c with mws in order, so the last middleware runs first.
// Nil entries are skipped.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		if mw != nil {
			c = mw(c)
		}
	}
	return c
}

// Unwrappable exposes the command a decorator was built around.
type Unwrappable interface {
	Command
	Unwrap() Command
}

// Wrapped keeps Inner's identity and swaps its Run for RunFunc.
type Wrapped struct {
	Inner   Command
	RunFunc func(ctx context.Context, inv *Invocation) error
}

func (w *Wrapped) Name() string        { return w.Inner.Name() }
func (w *Wrapped) Description() string { return w.Inner.Description() }
func (w *Wrapped) Unwrap() Command     { return w.Inner }

func (w *Wrapped) Run(ctx context.Context, inv *Invocation) error {
	if w.RunFunc == nil {
		return w.Inner.Run(ctx, inv)
	}
	return w.RunFunc(ctx, inv)
}

func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	return &Wrapped{Inner: c, RunFunc: run}
}

// Root strips every Unwrappable layer off c.
func Root(c Command) Command {
	for {
		u, ok := c.(Unwrappable)
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}

// As reports whether the root of c implements T and returns it.
func As[T any](c Command) (T, bool) {
	t, ok := Root(c).(T)
	return t, ok
}
