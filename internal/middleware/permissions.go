package middleware

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/discord"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

var developerID atomic.Value

// SetDeveloperID sets the user that bypasses permission checks. Commands are
// registered from init(), before config is loaded, so the bot sets it at startup.
func SetDeveloperID(id string) {
	developerID.Store(id)
}

func developer() string {
	id, _ := developerID.Load().(string)
	return id
}

// WithUserPermissionCheck requires the invoking user to hold at least one of the
// command's UserPermissions in the channel. Administrators and the developer bypass it.
func WithUserPermissionCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			meta, ok := cmd.As[command.DiscordMeta](c)
			if !ok || len(meta.UserPermissions()) == 0 {
				return c.Run(ctx, inv)
			}

			var (
				s                          command.Session
				guildID, channelID, userID string
			)
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				s, guildID, channelID = v.Session, v.Event.GuildID, v.Event.ChannelID
				userID = interactionUser(v.Event).ID
			case *command.MessageContext:
				s, guildID, channelID = v.Session, v.Event.GuildID, v.Event.ChannelID
				if v.Event.Author != nil {
					userID = v.Event.Author.ID
				}
			case *command.AIContext:
				s, guildID, channelID = v.Session, v.GuildID(), v.ChannelID()
				if v.Message != nil && v.Message.Author != nil {
					userID = v.Message.Author.ID
				}
			default:
				return c.Run(ctx, inv)
			}

			if guildID == "" || userID == "" || userID == developer() {
				return c.Run(ctx, inv)
			}

			perms, err := s.UserChannelPermissions(userID, channelID)
			if err != nil {
				return fmt.Errorf("failed to get user permissions: %w", err)
			}
			if perms&discordgo.PermissionAdministrator != 0 {
				return c.Run(ctx, inv)
			}
			for _, p := range meta.UserPermissions() {
				if perms&p != 0 {
					return c.Run(ctx, inv)
				}
			}

			msg := missingPermissionsMessage(meta.UserPermissions())
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				return discord.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{Description: msg})
			case *command.MessageContext:
				_, err := v.Session.ChannelMessageSendReply(channelID, msg, v.Event.Reference())
				return err
			case *command.AIContext:
				v.Result = command.AIError("The requesting user lacks the permissions to run this command")
			}
			return nil
		})
	}
}

func missingPermissionsMessage(required []int64) string {
	names := make([]string, 0, len(required))
	for _, p := range required {
		name := command.PermissionNames[p]
		if name == "" {
			name = fmt.Sprintf("0x%x", p)
		}
		names = append(names, name)
	}
	return fmt.Sprintf(
		"You need at least one of the following permissions to run this command:\n`%s`",
		strings.Join(names, "`, `"),
	)
}

// interactionUser returns the user behind an interaction (guild member or DM user).
func interactionUser(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "", Username: "unknown"}
}
