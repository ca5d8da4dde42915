package ai

import (
	"context"
	"fmt"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/pkg/cmd"
)

// Toolset is the set of tools offered to the model, in registry order.
type Toolset struct {
	tools []*Tool
	index map[string]*Tool
}

// NewToolset collects every AI-capable command in r.
func NewToolset(r *cmd.Registry) (*Toolset, error) {
	ts := &Toolset{index: make(map[string]*Tool)}
	for _, c := range r.GetAll() {
		a, ok := command.Adapter(c)
		if !ok || !a.SupportsAI() {
			continue
		}
		t, err := NewTool(c)
		if err != nil {
			return nil, err
		}
		ts.tools = append(ts.tools, t)
		ts.index[t.Name()] = t
	}
	return ts, nil
}

func (ts *Toolset) Specs() []ToolSpec {
	specs := make([]ToolSpec, len(ts.tools))
	for i, t := range ts.tools {
		specs[i] = t.Spec()
	}
	return specs
}

func (ts *Toolset) Get(name string) (*Tool, bool) {
	t, ok := ts.index[name]
	return t, ok
}

func (ts *Toolset) Len() int { return len(ts.tools) }

// Execute runs the tool named by call.
func (ts *Toolset) Execute(ctx context.Context, actx *command.AIContext, call ToolCall) (command.AIResult, error) {
	t, ok := ts.Get(call.Name)
	if !ok {
		return command.AIResult{}, fmt.Errorf("%w: %q", ErrToolNotFound, call.Name)
	}
	return t.Execute(ctx, actx, call.Arguments)
}
