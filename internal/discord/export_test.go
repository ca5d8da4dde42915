package discord

import (
	"context"

	"github.com/keshon/pollbot/internal/command"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) HandleMessage(ctx context.Context, s command.Session, botID string, m *discordgo.MessageCreate) {
	b.handleMessage(ctx, s, botID, m)
}

func (b *Bot) HandleInteraction(ctx context.Context, s command.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(ctx, s, i)
}
