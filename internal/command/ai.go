package command

import (
	"encoding/json"

	"github.com/keshon/pollbot/internal/storage"

	"github.com/bwmarrin/discordgo"
)

// AIDefinition describes a command to the language model: name, description and
// a JSON Schema object for its arguments.
type AIDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// AIContext is one tool call made by the model on behalf of a chat message.
type AIContext struct {
	Session Session
	Message *discordgo.Message // message that triggered the agent
	BotID   string
	Storage *storage.Storage
	Params  json.RawMessage // schema-validated arguments

	// Result is filled by the adapter after the command ran.
	Result AIResult
}

// InGuild reports whether the triggering message was sent in a server.
func (c *AIContext) InGuild() bool {
	return c.Message != nil && c.Message.GuildID != ""
}

func (c *AIContext) GuildID() string {
	if c.Message == nil {
		return ""
	}
	return c.Message.GuildID
}

func (c *AIContext) ChannelID() string {
	if c.Message == nil {
		return ""
	}
	return c.Message.ChannelID
}

// WithParams returns a copy of c for a single tool call.
func (c *AIContext) WithParams(params json.RawMessage) *AIContext {
	next := *c
	next.Params = params
	next.Result = AIResult{}
	return &next
}

// AIResult is what the model sees after a tool call: either data or an error
// message it can relay to the user.
type AIResult struct {
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func AIOK(data any) AIResult     { return AIResult{Data: data} }
func AIError(msg string) AIResult { return AIResult{Error: msg} }
func (r AIResult) Failed() bool   { return r.Error != "" }

// JSON encodes the result for a tool message; a success without data becomes {"ok":true}.
func (r AIResult) JSON() string {
	if !r.Failed() && r.Data == nil {
		return `{"ok":true}`
	}
	b, err := json.Marshal(r)
	if err != nil {
		return `{"error":"result could not be encoded"}`
	}
	return string(b)
}
