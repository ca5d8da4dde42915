// Package openai implements ai.LanguageModel on the OpenAI chat completions API
// (or any compatible endpoint set with WithBaseURL).
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/keshon/pollbot/internal/ai"
	"github.com/keshon/pollbot/pkg/retrylimit"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

type Provider struct {
	client  *openai.Client
	model   string
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config
}

type settings struct {
	baseURL    string
	httpClient *http.Client
	retry      retrylimit.Config
	limiter    *retrylimit.AdaptiveLimiter
}

type Option func(*settings)

func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

func WithRetryConfig(cfg retrylimit.Config) Option {
	return func(s *settings) { s.retry = cfg }
}

func WithLimiter(l *retrylimit.AdaptiveLimiter) Option {
	return func(s *settings) { s.limiter = l }
}

func New(apiKey, model string, opts ...Option) *Provider {
	s := settings{
		retry:   retrylimit.DefaultConfig(),
		limiter: retrylimit.NewAdaptiveLimiter(2, 0.2, 10, 0.5, 0.5),
	}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	if s.httpClient != nil {
		cfg.HTTPClient = s.httpClient
	}
	return &Provider{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: s.limiter,
		retry:   s.retry,
	}
}

func (p *Provider) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: convertMessages(req.Messages, req.System),
		Tools:    convertTools(req.Tools),
	}

	var resp openai.ChatCompletionResponse
	err := retrylimit.Do(ctx, p.limiter, p.retry, func(ctx context.Context) error {
		r, err := p.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return classify(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.ErrEmptyResponse
	}

	log.Debug().
		Str("model", resp.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Chat completion")

	choice := resp.Choices[0]
	out := &ai.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ai.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// classify attaches the HTTP status for the retry loop. Client errors other
// than 429 are not retried.
func classify(err error) error {
	code := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	default:
		return err
	}
	se := &retrylimit.StatusError{Code: code, Err: err}
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return retrylimit.Fatal(se)
	}
	return se
}

func convertMessages(messages []ai.Message, system string) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func convertTools(tools []ai.ToolSpec) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}
