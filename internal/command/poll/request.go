package poll

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MinAnswers = 1
	MaxAnswers = 10

	MinDurationHours     = 1
	MaxDurationHours     = 32
	DefaultDurationHours = 24
)

// ErrInvalidPoll wraps every rejection made while building a PollRequest.
var ErrInvalidPoll = errors.New("invalid poll")

// PollMedia is a question or answer: text plus an optional emoji.
type PollMedia struct {
	Text  string `json:"text"`
	Emoji string `json:"emoji,omitempty"`
}

// PollRequest is a validated poll. Build it with NewPollRequest or ParseRequest.
type PollRequest struct {
	Question         PollMedia
	Answers          []PollMedia
	AllowMultiselect bool
	DurationHours    int
}

// NewPollRequest trims and validates its input. A zero durationHours means the default (24).
func NewPollRequest(question PollMedia, answers []PollMedia, allowMultiselect bool, durationHours int) (PollRequest, error) {
	question = question.trimmed()
	if question.Text == "" {
		return PollRequest{}, fmt.Errorf("%w: question text is required", ErrInvalidPoll)
	}

	if len(answers) < MinAnswers || len(answers) > MaxAnswers {
		return PollRequest{}, fmt.Errorf("%w: need %d to %d answers, got %d", ErrInvalidPoll, MinAnswers, MaxAnswers, len(answers))
	}
	trimmed := make([]PollMedia, len(answers))
	for i, a := range answers {
		trimmed[i] = a.trimmed()
		if trimmed[i].Text == "" {
			return PollRequest{}, fmt.Errorf("%w: answer %d has no text", ErrInvalidPoll, i+1)
		}
	}

	if durationHours == 0 {
		durationHours = DefaultDurationHours
	}
	if durationHours < MinDurationHours || durationHours > MaxDurationHours {
		return PollRequest{}, fmt.Errorf("%w: duration must be %d to %d hours, got %d", ErrInvalidPoll, MinDurationHours, MaxDurationHours, durationHours)
	}

	return PollRequest{
		Question:         question,
		Answers:          trimmed,
		AllowMultiselect: allowMultiselect,
		DurationHours:    durationHours,
	}, nil
}

// pollArgs is the wire shape of the AI arguments.
type pollArgs struct {
	Question         PollMedia   `json:"question"`
	Answers          []PollMedia `json:"answers"`
	AllowMultiselect *bool       `json:"allow_multiselect"`
	Duration         *float64    `json:"duration"`
}

// ParseRequest decodes AI arguments, applies defaults and validates.
func ParseRequest(raw json.RawMessage) (PollRequest, error) {
	var args pollArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return PollRequest{}, fmt.Errorf("%w: %v", ErrInvalidPoll, err)
	}

	multiselect := false
	if args.AllowMultiselect != nil {
		multiselect = *args.AllowMultiselect
	}

	duration := DefaultDurationHours
	if args.Duration != nil {
		d := *args.Duration
		if d != math.Trunc(d) {
			return PollRequest{}, fmt.Errorf("%w: duration must be a whole number of hours, got %v", ErrInvalidPoll, d)
		}
		if d < MinDurationHours || d > MaxDurationHours {
			return PollRequest{}, fmt.Errorf("%w: duration must be %d to %d hours, got %v", ErrInvalidPoll, MinDurationHours, MaxDurationHours, d)
		}
		duration = int(d)
	}

	return NewPollRequest(args.Question, args.Answers, multiselect, duration)
}

func (m PollMedia) trimmed() PollMedia {
	return PollMedia{Text: strings.TrimSpace(m.Text), Emoji: strings.TrimSpace(m.Emoji)}
}

func mediaSchema(description, textDescription string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description,
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": textDescription,
			},
			"emoji": map[string]any{
				"type":        "string",
				"description": "An optional emoji associated with the text. Eg: 👍",
			},
		},
		"required": []string{"text"},
	}
}

// Parameters is the JSON Schema the model fills in to call the command.
func Parameters() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "An object representing a poll to include in the message",
		"properties": map[string]any{
			"question": mediaSchema(
				"An object representing the media for a poll question, containing the text of the question. Emoji cannot be used in question text.",
				"The question text of the poll",
			),
			"answers": map[string]any{
				"type":        "array",
				"description": "An array of answers for the poll",
				"minItems":    MinAnswers,
				"maxItems":    MaxAnswers,
				"items":       mediaSchema("An answer option of the poll", "The answer text"),
			},
			"allow_multiselect": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Whether the poll allows multiple selections",
			},
			"duration": map[string]any{
				"type":        "integer",
				"minimum":     MinDurationHours,
				"maximum":     MaxDurationHours,
				"default":     DefaultDurationHours,
				"description": "The duration of the poll in hours",
			},
		},
		"required": []string{"question", "answers"},
	}
}
