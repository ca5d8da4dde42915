package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/pollbot/internal/command"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultMaxSteps = 4

// Agent answers a chat message, letting the model call tools on the way.
type Agent struct {
	model        LanguageModel
	tools        *Toolset
	systemPrompt string
	maxSteps     int
	limiter      *GuildLimiter
}

func NewAgent(model LanguageModel, tools *Toolset, opts ...Option) *Agent {
	a := &Agent{
		model:    model,
		tools:    tools,
		maxSteps: defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run sends prompt to the model and executes tool calls until the model
// replies with text. Tool results the model should see (including guard
// failures) are fed back; a command fault ends the run with an error.
func (a *Agent) Run(ctx context.Context, actx *command.AIContext, prompt string) (string, error) {
	if a.limiter != nil && !a.limiter.Allow(limiterKey(actx)) {
		return "", ErrRateLimited
	}

	logger := log.With().
		Str("run", uuid.NewString()).
		Str("guild", actx.GuildID()).
		Str("channel", actx.ChannelID()).
		Logger()

	messages := []Message{{Role: RoleUser, Content: prompt}}
	specs := a.tools.Specs()

	for step := 1; step <= a.maxSteps; step++ {
		resp, err := a.model.Generate(ctx, Request{
			System:   a.systemPrompt,
			Messages: messages,
			Tools:    specs,
		})
		if err != nil {
			return "", fmt.Errorf("generate (step %d): %w", step, err)
		}

		if len(resp.ToolCalls) == 0 {
			reply := cleanReply(resp.Content)
			if reply == "" {
				return "", ErrEmptyResponse
			}
			logger.Debug().Int("steps", step).Msg("Agent finished")
			return reply, nil
		}

		messages = append(messages, Message{Role: RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			res, err := a.tools.Execute(ctx, actx, call)
			if errors.Is(err, ErrToolNotFound) {
				res, err = command.AIError(fmt.Sprintf("unknown tool %q", call.Name)), nil
			}
			if err != nil {
				return "", fmt.Errorf("tool %s: %w", call.Name, err)
			}
			logger.Info().
				Str("tool", call.Name).
				Bool("failed", res.Failed()).
				Str("error", res.Error).
				Msg("Tool call")
			messages = append(messages, Message{Role: RoleTool, ToolCallID: call.ID, Content: res.JSON()})
		}
	}
	return "", ErrMaxSteps
}

func limiterKey(actx *command.AIContext) string {
	if actx.InGuild() {
		return actx.GuildID()
	}
	return "dm:" + actx.ChannelID()
}
