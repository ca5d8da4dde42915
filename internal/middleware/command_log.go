package middleware

import (
	"context"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/storage"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/rs/zerolog/log"
)

// WithCommandLogger logs each run and appends it to the guild's command history.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			var (
				stor    *storage.Storage
				guildID string
				rec     storage.CommandHistoryRecord
			)
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				u := interactionUser(v.Event)
				stor, guildID = v.Storage, v.Event.GuildID
				rec = storage.CommandHistoryRecord{ChannelID: v.Event.ChannelID, UserID: u.ID, Username: u.Username, Source: "slash"}
			case *command.MessageContext:
				stor, guildID = v.Storage, v.Event.GuildID
				rec = storage.CommandHistoryRecord{ChannelID: v.Event.ChannelID, Source: "message"}
				if v.Event.Author != nil {
					rec.UserID, rec.Username = v.Event.Author.ID, v.Event.Author.Username
				}
			case *command.AIContext:
				stor, guildID = v.Storage, v.GuildID()
				rec = storage.CommandHistoryRecord{ChannelID: v.ChannelID(), Source: "ai"}
				if v.Message != nil && v.Message.Author != nil {
					rec.UserID, rec.Username = v.Message.Author.ID, v.Message.Author.Username
				}
			default:
				return err
			}
			rec.Command = c.Name()

			event := log.Info()
			if err != nil {
				event = log.Error().Err(err)
			}
			event.Str("command", rec.Command).
				Str("source", rec.Source).
				Str("guild", guildID).
				Str("channel", rec.ChannelID).
				Str("user", rec.Username).
				Msg("Command executed")

			if stor != nil && guildID != "" {
				if e := stor.AppendCommandToHistory(guildID, rec); e != nil {
					log.Warn().Err(e).Str("command", rec.Command).Msg("Failed to record command history")
				}
			}
			return err
		})
	}
}
