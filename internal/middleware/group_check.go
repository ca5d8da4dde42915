package middleware

import (
	"context"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/discord"
	"github.com/keshon/pollbot/internal/storage"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const disabledMessage = "This command is disabled on this server."

// WithGroupAccessCheck refuses commands whose group was disabled in the guild.
func WithGroupAccessCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				if disabledGroup(c, v.Event.GuildID, v.Storage) {
					return discord.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
						Description: disabledMessage + "\nUse `/commands status` to see which groups are disabled.",
					})
				}
			case *command.MessageContext:
				if disabledGroup(c, v.Event.GuildID, v.Storage) {
					return nil
				}
			case *command.AIContext:
				if disabledGroup(c, v.GuildID(), v.Storage) {
					v.Result = command.AIError(disabledMessage)
					return nil
				}
			}
			return c.Run(ctx, inv)
		})
	}
}

func disabledGroup(c cmd.Command, guildID string, stor *storage.Storage) bool {
	meta, ok := cmd.As[command.DiscordMeta](c)
	if !ok || meta.Group() == "" || stor == nil || guildID == "" {
		return false
	}
	disabled, err := stor.IsGroupDisabled(guildID, meta.Group())
	if err != nil {
		log.Warn().Err(err).Str("guild", guildID).Str("group", meta.Group()).Msg("Group lookup failed")
		return false
	}
	return disabled
}
