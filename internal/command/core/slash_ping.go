package core

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/discord"
	"github.com/keshon/pollbot/internal/middleware"

	"github.com/bwmarrin/discordgo"
)

type PingCommand struct{}

func (c *PingCommand) Name() string             { return "ping" }
func (c *PingCommand) Description() string      { return "Check bot latency" }
func (c *PingCommand) Group() string            { return "core" }
func (c *PingCommand) Category() string         { return "🛠️ Maintenance" }
func (c *PingCommand) UserPermissions() []int64 { return []int64{} }

func (c *PingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *PingCommand) Slash(ctx context.Context, sctx *command.SlashInteractionContext) error {
	return discord.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Title:       "Pong! 🏓",
		Description: latencyText(sctx.Event.ID, time.Now()),
	})
}

func (c *PingCommand) Message(ctx context.Context, mctx *command.MessageContext) error {
	_, err := mctx.Session.ChannelMessageSendReply(mctx.Event.ChannelID, "Pong! 🏓 "+latencyText(mctx.Event.ID, time.Now()), mctx.Event.Reference(), discordgo.WithContext(ctx))
	return err
}

// latencyText measures from the snowflake timestamp of the triggering event.
func latencyText(snowflake string, now time.Time) string {
	created, err := discordgo.SnowflakeTimestamp(snowflake)
	if err != nil {
		return "Latency: unknown"
	}
	latency := now.Sub(created)
	if latency < 0 {
		latency = 0
	}
	return fmt.Sprintf("Latency: %dms", latency.Milliseconds())
}

func init() {
	command.RegisterCommand(
		&PingCommand{},
		middleware.WithGroupAccessCheck(),
		middleware.WithCommandLogger(),
	)
}
