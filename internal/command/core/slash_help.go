package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/config"
	"github.com/keshon/pollbot/internal/discord"
	"github.com/keshon/pollbot/internal/middleware"
	"github.com/keshon/pollbot/internal/version"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

type HelpCommand struct {
	// Registry defaults to cmd.DefaultRegistry.
	Registry *cmd.Registry
}

func (c *HelpCommand) Name() string             { return "help" }
func (c *HelpCommand) Description() string      { return "Get a list of available commands" }
func (c *HelpCommand) Group() string            { return "core" }
func (c *HelpCommand) Category() string         { return "🕯️ Information" }
func (c *HelpCommand) UserPermissions() []int64 { return []int64{} }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "category",
				Description: "View commands grouped by category",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "group",
				Description: "View commands grouped by group",
			},
		},
	}
}

func (c *HelpCommand) Slash(ctx context.Context, sctx *command.SlashInteractionContext) error {
	byGroup := false
	if opts := sctx.Event.ApplicationCommandData().Options; len(opts) > 0 {
		byGroup = opts[0].Name == "group"
	}
	return discord.RespondEmbedEphemeral(sctx.Session, sctx.Event, c.embed(byGroup))
}

func (c *HelpCommand) Message(ctx context.Context, mctx *command.MessageContext) error {
	byGroup := len(mctx.Args) > 0 && strings.EqualFold(mctx.Args[0], "group")
	_, err := mctx.Session.ChannelMessageSendComplex(mctx.Event.ChannelID, &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{c.embed(byGroup)},
		Reference: mctx.Event.Reference(),
	}, discordgo.WithContext(ctx))
	return err
}

func (c *HelpCommand) embed(byGroup bool) *discordgo.MessageEmbed {
	output := buildHelpByCategory(c.registry())
	if byGroup {
		output = buildHelpByGroup(c.registry())
	}
	return &discordgo.MessageEmbed{
		Title:       version.AppName + " Help",
		Description: output,
		Color:       discord.EmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "🤖 marks commands only the AI can run. Mention the bot to use them."},
	}
}

func (c *HelpCommand) registry() *cmd.Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return cmd.DefaultRegistry
}

type helpEntry struct {
	name, description, group, category string
	aiOnly                             bool
}

func helpEntries(r *cmd.Registry) []helpEntry {
	var entries []helpEntry
	for _, c := range r.GetAll() {
		a, ok := command.Adapter(c)
		if !ok {
			continue
		}
		entries = append(entries, helpEntry{
			name:        c.Name(),
			description: c.Description(),
			group:       a.Group(),
			category:    a.Category(),
			aiOnly:      a.SupportsAI() && !a.SupportsSlash(),
		})
	}
	return entries
}

func (e helpEntry) line() string {
	if e.aiOnly {
		return fmt.Sprintf("`%s` 🤖 - %s\n", e.name, e.description)
	}
	return fmt.Sprintf("`%s` - %s\n", e.name, e.description)
}

func buildHelpByCategory(r *cmd.Registry) string {
	byCategory := make(map[string][]helpEntry)
	var categories []string
	for _, e := range helpEntries(r) {
		if _, ok := byCategory[e.category]; !ok {
			categories = append(categories, e.category)
		}
		byCategory[e.category] = append(byCategory[e.category], e)
	}
	sort.SliceStable(categories, func(i, j int) bool {
		wi, wj := config.CategoryWeight(categories[i]), config.CategoryWeight(categories[j])
		if wi != wj {
			return wi < wj
		}
		return categories[i] < categories[j]
	})

	var sb strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&sb, "**%s**\n", cat)
		for _, e := range byCategory[cat] {
			sb.WriteString(e.line())
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func buildHelpByGroup(r *cmd.Registry) string {
	byGroup := make(map[string][]helpEntry)
	for _, e := range helpEntries(r) {
		byGroup[e.group] = append(byGroup[e.group], e)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var sb strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&sb, "**%s**\n", g)
		for _, e := range byGroup[g] {
			sb.WriteString(e.line())
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func init() {
	command.RegisterCommand(
		&HelpCommand{},
		middleware.WithGroupAccessCheck(),
		middleware.WithCommandLogger(),
	)
}
