package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/discord"
	"github.com/keshon/pollbot/internal/middleware"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// protectedGroup cannot be disabled: it holds the command that re-enables groups.
const protectedGroup = "core"

// CommandsCommand shows and toggles command groups per server.
type CommandsCommand struct {
	// Registry defaults to cmd.DefaultRegistry.
	Registry *cmd.Registry
}

func (c *CommandsCommand) Name() string        { return "commands" }
func (c *CommandsCommand) Description() string { return "Enable, disable or list command groups" }
func (c *CommandsCommand) Group() string       { return protectedGroup }
func (c *CommandsCommand) Category() string    { return "🛠️ Maintenance" }
func (c *CommandsCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator, discordgo.PermissionManageGuild}
}

func (c *CommandsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show enabled and disabled command groups",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "toggle",
				Description: "Enable or disable a command group",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "group",
						Description: "Command group, e.g. poll",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "enabled",
						Description: "Enable (true) or disable (false) the group",
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *CommandsCommand) Slash(ctx context.Context, sctx *command.SlashInteractionContext) error {
	s, e, stor := sctx.Session, sctx.Event, sctx.Storage
	if stor == nil {
		return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{Description: "Storage is not available."})
	}

	opts := e.ApplicationCommandData().Options
	if len(opts) == 0 {
		return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{Description: "No subcommand provided."})
	}

	switch sub := opts[0]; sub.Name {
	case "status":
		disabled, err := stor.GetDisabledGroups(e.GuildID)
		if err != nil {
			return fmt.Errorf("fetch disabled groups: %w", err)
		}
		return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "Command groups",
			Description: groupStatus(c.groups(), disabled),
		})
	case "toggle":
		var group string
		var enabled bool
		for _, o := range sub.Options {
			switch o.Name {
			case "group":
				group = strings.ToLower(strings.TrimSpace(o.StringValue()))
			case "enabled":
				enabled = o.BoolValue()
			}
		}
		msg, err := c.toggle(e.GuildID, group, enabled, sctx)
		if err != nil {
			return err
		}
		return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{Description: msg})
	default:
		return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *CommandsCommand) toggle(guildID, group string, enabled bool, sctx *command.SlashInteractionContext) (string, error) {
	if !slices.Contains(c.groups(), group) {
		return fmt.Sprintf("Unknown group `%s`.", group), nil
	}
	if group == protectedGroup && !enabled {
		return fmt.Sprintf("The `%s` group cannot be disabled.", protectedGroup), nil
	}
	state := "enabled"
	if enabled {
		if err := sctx.Storage.EnableGroup(guildID, group); err != nil {
			return "", fmt.Errorf("enable group %q: %w", group, err)
		}
	} else {
		if err := sctx.Storage.DisableGroup(guildID, group); err != nil {
			return "", fmt.Errorf("disable group %q: %w", group, err)
		}
		state = "disabled"
	}
	discord.RefreshCommands(guildID, "group:"+group)
	return fmt.Sprintf("Group `%s` %s.", group, state), nil
}

func (c *CommandsCommand) groups() []string {
	r := c.Registry
	if r == nil {
		r = cmd.DefaultRegistry
	}
	var groups []string
	for _, cm := range r.GetAll() {
		if a, ok := command.Adapter(cm); ok && !slices.Contains(groups, a.Group()) {
			groups = append(groups, a.Group())
		}
	}
	slices.Sort(groups)
	return groups
}

func groupStatus(groups, disabled []string) string {
	var sb strings.Builder
	for _, g := range groups {
		mark := "✅"
		if slices.Contains(disabled, g) {
			mark = "❌"
		}
		fmt.Fprintf(&sb, "%s `%s`\n", mark, g)
	}
	if sb.Len() == 0 {
		return "No command groups registered."
	}
	return strings.TrimSpace(sb.String())
}

func init() {
	command.RegisterCommand(
		&CommandsCommand{},
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
		middleware.WithCommandLogger(),
	)
}
