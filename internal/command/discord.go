package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/pollbot/internal/storage"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// ErrUnsupportedInvocation is returned when a command is run through an entry
// point it does not provide (e.g. a slash invocation of an AI-only command).
var ErrUnsupportedInvocation = errors.New("command does not support this invocation")

// Discord-specific contexts (what the runtime passes in cmd.Invocation.Data).

type SlashInteractionContext struct {
	Session Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
}

// MessageContext is a prefix command typed in chat, e.g. "!poll".
type MessageContext struct {
	Session Session
	Event   *discordgo.MessageCreate
	Args    []string
	Storage *storage.Storage
}

// Providers: which entry points a command supports.

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
	Slash(ctx context.Context, sctx *SlashInteractionContext) error
}

type MessageProvider interface {
	Message(ctx context.Context, mctx *MessageContext) error
}

type AIProvider interface {
	AIDefinition() *AIDefinition
	AI(ctx context.Context, actx *AIContext) (AIResult, error)
}

// DiscordMeta lets middleware read Group/Category/Permissions through wrappers.
type DiscordMeta interface {
	Group() string
	Category() string
	UserPermissions() []int64
}

// DiscordCommand is what individual Discord commands implement, plus at least one provider.
type DiscordCommand interface {
	Name() string
	Description() string
	Group() string
	Category() string
	UserPermissions() []int64
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// universal registry. Run dispatches on the invocation context type.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string             { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string      { return a.Cmd.Description() }
func (a *DiscordAdapter) Group() string            { return a.Cmd.Group() }
func (a *DiscordAdapter) Category() string         { return a.Cmd.Category() }
func (a *DiscordAdapter) UserPermissions() []int64 { return a.Cmd.UserPermissions() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	switch v := inv.Data.(type) {
	case *SlashInteractionContext:
		if p, ok := a.Cmd.(SlashProvider); ok {
			return p.Slash(ctx, v)
		}
	case *MessageContext:
		if p, ok := a.Cmd.(MessageProvider); ok {
			return p.Message(ctx, v)
		}
	case *AIContext:
		if p, ok := a.Cmd.(AIProvider); ok {
			res, err := p.AI(ctx, v)
			v.Result = res
			return err
		}
	}
	return fmt.Errorf("%s: %w (%T)", a.Cmd.Name(), ErrUnsupportedInvocation, inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if p, ok := a.Cmd.(SlashProvider); ok {
		return p.SlashDefinition()
	}
	return nil
}

func (a *DiscordAdapter) AIDefinition() *AIDefinition {
	if p, ok := a.Cmd.(AIProvider); ok {
		return p.AIDefinition()
	}
	return nil
}

// SupportsSlash, SupportsMessage and SupportsAI report the entry points of the wrapped command.
func (a *DiscordAdapter) SupportsSlash() bool {
	_, ok := a.Cmd.(SlashProvider)
	return ok
}

func (a *DiscordAdapter) SupportsMessage() bool {
	_, ok := a.Cmd.(MessageProvider)
	return ok
}

func (a *DiscordAdapter) SupportsAI() bool {
	_, ok := a.Cmd.(AIProvider)
	return ok
}

// Adapter returns the DiscordAdapter under any middleware wrapping c.
func Adapter(c cmd.Command) (*DiscordAdapter, bool) {
	a, ok := cmd.As[*DiscordAdapter](c)
	return a, ok
}

// RegisterCommand registers a Discord command in cmd.DefaultRegistry with middlewares applied.
func RegisterCommand(discordCmd DiscordCommand, mws ...cmd.Middleware) {
	RegisterCommandIn(cmd.DefaultRegistry, discordCmd, mws...)
}

func RegisterCommandIn(r *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) {
	r.MustRegister(cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...))
}
