package poll

import (
	"regexp"

	"github.com/bwmarrin/discordgo"
)

// customEmoji matches <:name:id> and <a:name:id>.
var customEmoji = regexp.MustCompile(`^<(a?):([A-Za-z0-9_~]+):(\d+)>$`)

// BuildMessage turns a request into the outbound poll message. Only the
// question text is forwarded; a question emoji is dropped.
func BuildMessage(req PollRequest) *discordgo.MessageSend {
	answers := make([]discordgo.PollAnswer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = discordgo.PollAnswer{
			Media: &discordgo.PollMedia{Text: a.Text, Emoji: parseEmoji(a.Emoji)},
		}
	}

	duration := req.DurationHours
	if duration == 0 {
		duration = DefaultDurationHours
	}

	return &discordgo.MessageSend{
		Poll: &discordgo.Poll{
			Question:         discordgo.PollMedia{Text: req.Question.Text},
			Answers:          answers,
			AllowMultiselect: req.AllowMultiselect,
			Duration:         duration,
		},
	}
}

// parseEmoji accepts a unicode emoji or a custom emoji mention. Empty input yields nil.
func parseEmoji(s string) *discordgo.ComponentEmoji {
	if s == "" {
		return nil
	}
	if m := customEmoji.FindStringSubmatch(s); m != nil {
		return &discordgo.ComponentEmoji{Name: m[2], ID: m[3], Animated: m[1] == "a"}
	}
	return &discordgo.ComponentEmoji{Name: s}
}
