package middleware

import (
	"context"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/discord"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

const guildOnlyMessage = "This command can only be used in a server."

// WithGuildOnly stops slash and message invocations that come from DMs.
// AI invocations pass through: AI commands report scope errors to the model themselves.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				if v.Event.GuildID == "" {
					return discord.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{Description: guildOnlyMessage})
				}
			case *command.MessageContext:
				if v.Event.GuildID == "" {
					_, err := v.Session.ChannelMessageSendReply(v.Event.ChannelID, guildOnlyMessage, v.Event.Reference())
					return err
				}
			}
			return c.Run(ctx, inv)
		})
	}
}
