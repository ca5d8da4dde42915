package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool is an AI-capable command with its compiled argument schema.
type Tool struct {
	spec    ToolSpec
	command cmd.Command
	schema  *jsonschema.Schema
}

// NewTool builds a tool from a registered command. The command (under any
// middleware) must be a DiscordAdapter with an AI entry point.
func NewTool(c cmd.Command) (*Tool, error) {
	a, ok := command.Adapter(c)
	if !ok || !a.SupportsAI() {
		return nil, fmt.Errorf("command %q has no AI entry point", c.Name())
	}
	def := a.AIDefinition()
	spec := ToolSpec{Name: def.Name, Description: def.Description, Parameters: def.Parameters}
	if spec.Name == "" {
		spec.Name = c.Name()
	}
	if spec.Parameters == nil {
		spec.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	raw, err := json.Marshal(spec.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encode %s schema: %w", spec.Name, err)
	}
	// An absolute URL keeps the working directory out of validation errors.
	schema, err := jsonschema.CompileString(schemaURL(spec.Name), string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", spec.Name, err)
	}
	return &Tool{spec: spec, command: c, schema: schema}, nil
}

func schemaURL(tool string) string {
	return "mem:///" + tool + ".json"
}

func (t *Tool) Spec() ToolSpec { return t.spec }
func (t *Tool) Name() string   { return t.spec.Name }

// Validate checks raw arguments against the tool schema and returns them
// normalized. Empty arguments are treated as {}.
func (t *Tool) Validate(args string) (json.RawMessage, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		args = "{}"
	}
	dec := json.NewDecoder(strings.NewReader(args))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := t.schema.Validate(v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(args)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Execute validates args and runs the command through its middleware chain.
// Invalid arguments become an error result for the model; only command
// faults are returned as errors.
func (t *Tool) Execute(ctx context.Context, actx *command.AIContext, args string) (command.AIResult, error) {
	params, err := t.Validate(args)
	if err != nil {
		return command.AIError(fmt.Sprintf("invalid arguments for %s: %v", t.spec.Name, err)), nil
	}
	call := actx.WithParams(params)
	if err := t.command.Run(ctx, &cmd.Invocation{Data: call}); err != nil {
		return command.AIResult{}, err
	}
	return call.Result, nil
}
