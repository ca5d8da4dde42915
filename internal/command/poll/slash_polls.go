package poll

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/discord"
	"github.com/keshon/pollbot/internal/storage"

	"github.com/bwmarrin/discordgo"
)

const pollsListLimit = 10

// PollsCommand lists the polls the bot recently posted in the server.
type PollsCommand struct{}

func (c *PollsCommand) Name() string             { return "polls" }
func (c *PollsCommand) Description() string      { return "List recent polls created in this server" }
func (c *PollsCommand) Group() string            { return pollGroup }
func (c *PollsCommand) Category() string         { return pollCategory }
func (c *PollsCommand) UserPermissions() []int64 { return []int64{} }

func (c *PollsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *PollsCommand) Slash(ctx context.Context, sctx *command.SlashInteractionContext) error {
	if sctx.Storage == nil {
		return discord.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{Description: "Poll history is not available."})
	}
	polls, err := sctx.Storage.FetchPolls(sctx.Event.GuildID)
	if err != nil {
		return fmt.Errorf("fetch polls: %w", err)
	}
	return discord.RespondEmbed(sctx.Session, sctx.Event, PollsEmbed(sctx.Event.GuildID, polls))
}

// PollsEmbed renders up to pollsListLimit polls, newest first.
func PollsEmbed(guildID string, polls []storage.PollRecord) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Title: "📊 Recent polls"}
	if len(polls) == 0 {
		embed.Description = "No polls have been created in this server yet."
		return embed
	}
	if len(polls) > pollsListLimit {
		polls = polls[:pollsListLimit]
	}
	var sb strings.Builder
	for _, p := range polls {
		link := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, p.ChannelID, p.MessageID)
		mode := "single choice"
		if p.AllowMultiselect {
			mode = "multiple choice"
		}
		fmt.Fprintf(&sb, "**[%s](%s)**\n%d answers, %s, %dh, <t:%d:R>\n", p.Question, link, p.Answers, mode, p.DurationHours, p.CreatedAt.Unix())
	}
	embed.Description = strings.TrimSpace(sb.String())
	return embed
}
