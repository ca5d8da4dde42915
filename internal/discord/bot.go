package discord

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/keshon/pollbot/internal/ai"
	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/config"
	"github.com/keshon/pollbot/internal/storage"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	rateLimitedReply = "I'm getting a lot of requests in this server. Please try again in a minute."
	emptyPromptReply = "Hi! Tell me what you need, for example: make a poll about lunch options."
	aiDisabledReply  = "AI features are not configured on this bot."
)

var mentionToken = regexp.MustCompile(`<@!?(\d+)>`)

// Bot routes Discord events to registered commands and to the AI agent.
type Bot struct {
	cfg      *config.Config
	storage  *storage.Storage
	registry *cmd.Registry
	agent    *ai.Agent // nil when no model is configured

	dg     *discordgo.Session
	syncer *commandSyncer
}

type Option func(*Bot)

// WithAgent enables mention-triggered AI runs.
func WithAgent(a *ai.Agent) Option {
	return func(b *Bot) { b.agent = a }
}

// WithRegistry replaces cmd.DefaultRegistry.
func WithRegistry(r *cmd.Registry) Option {
	return func(b *Bot) { b.registry = r }
}

func New(cfg *config.Config, stor *storage.Storage, opts ...Option) *Bot {
	b := &Bot{
		cfg:      cfg,
		storage:  stor,
		registry: cmd.DefaultRegistry,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run connects to Discord and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	b.syncer = &commandSyncer{
		api:      dg,
		registry: b.registry,
		cacheDir: b.cfg.CommandsDir,
		delay:    25 * time.Millisecond,
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(ctx, s, s.State.User.ID, m)
	})
	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(ctx, s, i)
	})

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	go b.handleSystemEvents(ctx)

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, cleaning up")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if b.leaveIfBlacklisted(s, g.ID) {
			continue
		}
		b.syncGuild(g.ID)
	}
	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Info().Str("guild", g.ID).Str("name", g.Name).Msg("Guild available")
	if b.leaveIfBlacklisted(s, g.ID) {
		return
	}
	b.syncGuild(g.ID)
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !b.cfg.IsGuildBlacklisted(guildID) {
		return false
	}
	log.Info().Str("guild", guildID).Msg("Leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Failed to leave guild")
	}
	return true
}

func (b *Bot) syncGuild(guildID string) {
	if !b.cfg.InitSlashCommands || b.syncer == nil {
		return
	}
	var disabled []string
	if b.storage != nil {
		var err error
		if disabled, err = b.storage.GetDisabledGroups(guildID); err != nil {
			log.Warn().Err(err).Str("guild", guildID).Msg("Failed to read disabled groups")
		}
	}
	if err := b.syncer.Sync(b.dg.State.User.ID, guildID, disabled); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Failed to sync slash commands")
	}
}

func (b *Bot) handleSystemEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-SystemEvents():
			if evt.Type != SystemEventRefreshCommands {
				continue
			}
			log.Info().Str("guild", evt.GuildID).Str("target", evt.Target).Msg("Refreshing commands")
			if b.cfg.IsGuildBlacklisted(evt.GuildID) {
				if err := b.syncer.RemoveAll(b.dg.State.User.ID, evt.GuildID); err != nil {
					log.Error().Err(err).Str("guild", evt.GuildID).Msg("Failed to remove commands")
				}
				continue
			}
			b.syncGuild(evt.GuildID)
		}
	}
}

// handleMessage runs "<prefix><name> args" message commands and answers
// mentions of the bot through the AI agent.
func (b *Bot) handleMessage(ctx context.Context, s command.Session, botID string, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == botID {
		return
	}

	if prefix := b.cfg.CommandPrefix; prefix != "" && strings.HasPrefix(m.Content, prefix) {
		fields := strings.Fields(strings.TrimPrefix(m.Content, prefix))
		if len(fields) > 0 && b.runMessageCommand(ctx, s, m, fields[0], fields[1:]) {
			return
		}
	}

	if !mentions(m.Message, botID) {
		return
	}
	b.runAgent(ctx, s, botID, m)
}

func (b *Bot) runMessageCommand(ctx context.Context, s command.Session, m *discordgo.MessageCreate, name string, args []string) bool {
	c, ok := b.registry.Get(name)
	if !ok {
		return false
	}
	if a, ok := command.Adapter(c); !ok || !a.SupportsMessage() {
		return false
	}
	mctx := &command.MessageContext{Session: s, Event: m, Args: args, Storage: b.storage}
	if err := c.Run(ctx, &cmd.Invocation{Args: args, Data: mctx}); err != nil {
		log.Error().Err(err).Str("command", c.Name()).Str("guild", m.GuildID).Msg("Error running command")
		reportError(s, m.ChannelID, err)
	}
	return true
}

func (b *Bot) runAgent(ctx context.Context, s command.Session, botID string, m *discordgo.MessageCreate) {
	if b.agent == nil {
		_, _ = s.ChannelMessageSendReply(m.ChannelID, aiDisabledReply, m.Reference())
		return
	}

	prompt := stripMentions(m.Content, botID)
	if prompt == "" {
		_, _ = s.ChannelMessageSendReply(m.ChannelID, emptyPromptReply, m.Reference())
		return
	}

	done := make(chan struct{})
	defer close(done)
	if t, ok := s.(typer); ok {
		go keepTyping(t, m.ChannelID, done)
	}

	actx := &command.AIContext{Session: s, Message: m.Message, BotID: botID, Storage: b.storage}
	reply, err := b.agent.Run(ctx, actx, prompt)
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		_, _ = s.ChannelMessageSendReply(m.ChannelID, rateLimitedReply, m.Reference())
		return
	case err != nil:
		log.Error().Err(err).Str("guild", m.GuildID).Str("channel", m.ChannelID).Msg("AI run failed")
		reportError(s, m.ChannelID, err)
		return
	}

	for i, chunk := range SplitMessage(reply, maxMessageLen) {
		var err error
		if i == 0 {
			_, err = s.ChannelMessageSendReply(m.ChannelID, chunk, m.Reference())
		} else {
			_, err = s.ChannelMessageSend(m.ChannelID, chunk)
		}
		if err != nil {
			log.Error().Err(err).Str("channel", m.ChannelID).Msg("Failed to send reply")
			return
		}
	}
}

func (b *Bot) handleInteraction(ctx context.Context, s command.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.CommandType != 0 && data.CommandType != discordgo.ChatApplicationCommand {
		return
	}

	c, ok := b.registry.Get(data.Name)
	if !ok {
		log.Warn().Str("command", data.Name).Msg("Unknown command")
		return
	}
	sctx := &command.SlashInteractionContext{Session: s, Event: i, Storage: b.storage}
	if err := c.Run(ctx, &cmd.Invocation{Data: sctx}); err != nil {
		log.Error().Err(err).Str("command", c.Name()).Str("guild", i.GuildID).Msg("Error running slash command")
		_ = RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Error running slash command: %v", err),
		})
	}
}

func reportError(s command.Session, channelID string, err error) {
	_, _ = s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Description: fmt.Sprintf("Error running command: %v", err),
			Color:       EmbedColor,
		}},
	})
}

func mentions(m *discordgo.Message, userID string) bool {
	for _, u := range m.Mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

// stripMentions removes mentions of userID and collapses whitespace.
func stripMentions(content, userID string) string {
	content = mentionToken.ReplaceAllStringFunc(content, func(tok string) string {
		if mentionToken.FindStringSubmatch(tok)[1] == userID {
			return " "
		}
		return tok
	})
	return strings.Join(strings.Fields(content), " ")
}

type typer interface {
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

func keepTyping(t typer, channelID string, done <-chan struct{}) {
	_ = t.ChannelTyping(channelID)
	ticker := time.NewTicker(8 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = t.ChannelTyping(channelID)
		}
	}
}
