// Package poll implements the AI-invoked poll command and the /polls listing.
package poll

import (
	"context"
	"fmt"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/middleware"
	"github.com/keshon/pollbot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	errNotInGuild    = "Poll can only be created in a server"
	errNoPermission  = "Bot does not have the permission to send polls in this channel"
	aiOnlyReply      = "This command can only be used via AI"
	pollGroup        = "poll"
	pollCategory     = "📊 Polls"
	requiredBotPerms = discordgo.PermissionSendMessages
)

type PollCommand struct{}

func (c *PollCommand) Name() string             { return "poll" }
func (c *PollCommand) Description() string      { return "Create a poll" }
func (c *PollCommand) Group() string            { return pollGroup }
func (c *PollCommand) Category() string         { return pollCategory }
func (c *PollCommand) UserPermissions() []int64 { return []int64{} }

func (c *PollCommand) AIDefinition() *command.AIDefinition {
	return &command.AIDefinition{
		Name:        c.Name(),
		Description: c.Description(),
		Parameters:  Parameters(),
	}
}

// AI is the tool-call entry point. Arguments that fail to parse are reported
// back to the model, not raised.
func (c *PollCommand) AI(ctx context.Context, actx *command.AIContext) (command.AIResult, error) {
	req, err := ParseRequest(actx.Params)
	if err != nil {
		return command.AIError(err.Error()), nil
	}
	return c.Handle(ctx, actx, req)
}

// Handle posts req as a native poll in the channel of the triggering message.
// Guard failures come back as an error result with nothing sent; a failed send
// is returned as an error.
func (c *PollCommand) Handle(ctx context.Context, actx *command.AIContext, req PollRequest) (command.AIResult, error) {
	if !actx.InGuild() {
		return command.AIError(errNotInGuild), nil
	}

	channelID := actx.ChannelID()
	state := command.ChannelPermission(actx.Session, actx.BotID, channelID, requiredBotPerms)
	if !state.Granted() {
		log.Debug().
			Str("guild", actx.GuildID()).
			Str("channel", channelID).
			Stringer("permission", state).
			Msg("Poll refused: missing send permission")
		return command.AIError(errNoPermission), nil
	}

	msg, err := actx.Session.ChannelMessageSendComplex(channelID, BuildMessage(req), discordgo.WithContext(ctx))
	if err != nil {
		return command.AIResult{}, fmt.Errorf("send poll: %w", err)
	}

	if actx.Storage != nil {
		c.record(actx, req, msg)
	}
	return command.AIOK(map[string]string{"message_id": msg.ID}), nil
}

func (c *PollCommand) record(actx *command.AIContext, req PollRequest, msg *discordgo.Message) {
	rec := storage.PollRecord{
		ChannelID:        actx.ChannelID(),
		MessageID:        msg.ID,
		Question:         req.Question.Text,
		Answers:          len(req.Answers),
		AllowMultiselect: req.AllowMultiselect,
		DurationHours:    req.DurationHours,
	}
	if actx.Message.Author != nil {
		rec.RequestedBy = actx.Message.Author.ID
	}
	if _, err := actx.Storage.AppendPoll(actx.GuildID(), rec); err != nil {
		log.Warn().Err(err).Str("guild", actx.GuildID()).Msg("Failed to record poll")
	}
}

// Message answers a typed "!poll": polls are only built by the model.
func (c *PollCommand) Message(ctx context.Context, mctx *command.MessageContext) error {
	_, err := mctx.Session.ChannelMessageSendReply(mctx.Event.ChannelID, aiOnlyReply, mctx.Event.Reference(), discordgo.WithContext(ctx))
	return err
}

func init() {
	command.RegisterCommand(
		&PollCommand{},
		middleware.WithGroupAccessCheck(),
		middleware.WithCommandLogger(),
	)
	command.RegisterCommand(
		&PollsCommand{},
		middleware.WithGroupAccessCheck(),
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(),
		middleware.WithCommandLogger(),
	)
}
