// Package ai runs a tool-calling agent over the commands in a cmd.Registry.
// Commands whose Discord adapter provides an AI entry point are exposed to the
// language model as tools; the model's arguments are validated against each
// command's JSON Schema before the command runs.
package ai

import (
	"context"
	"errors"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrMaxSteps      = errors.New("max agent steps reached")
	ErrRateLimited   = errors.New("too many AI requests, try again later")
	ErrEmptyResponse = errors.New("empty response from model")
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on RoleTool messages
}

// ToolCall is a request from the model to run a tool. Arguments is raw JSON.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec is what the model is told about a tool.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// LanguageModel is a chat completion backend that supports tool calls.
type LanguageModel interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
