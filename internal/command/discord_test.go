package command_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/command/commandtest"
	"github.com/keshon/pollbot/pkg/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type aiOnly struct {
	got *command.AIContext
}

func (c *aiOnly) Name() string             { return "echo" }
func (c *aiOnly) Description() string      { return "Echo arguments" }
func (c *aiOnly) Group() string            { return "echo" }
func (c *aiOnly) Category() string         { return "test" }
func (c *aiOnly) UserPermissions() []int64 { return nil }

func (c *aiOnly) AIDefinition() *command.AIDefinition {
	return &command.AIDefinition{Name: c.Name(), Description: c.Description(), Parameters: map[string]any{"type": "object"}}
}

func (c *aiOnly) AI(ctx context.Context, actx *command.AIContext) (command.AIResult, error) {
	c.got = actx
	return command.AIOK(json.RawMessage(actx.Params)), nil
}

func (c *aiOnly) Message(ctx context.Context, mctx *command.MessageContext) error {
	_, err := mctx.Session.ChannelMessageSend(mctx.Event.ChannelID, "ai only")
	return err
}

func TestAdapterDispatchesAI(t *testing.T) {
	inner := &aiOnly{}
	adapter := &command.DiscordAdapter{Cmd: inner}

	actx := (&command.AIContext{Message: &discordgo.Message{GuildID: "g", ChannelID: "c"}}).WithParams(json.RawMessage(`{"x":1}`))
	require.NoError(t, adapter.Run(context.Background(), &cmd.Invocation{Data: actx}))

	assert.Same(t, actx, inner.got)
	assert.Equal(t, `{"data":{"x":1}}`, actx.Result.JSON())
	assert.True(t, adapter.SupportsAI())
	assert.True(t, adapter.SupportsMessage())
	assert.False(t, adapter.SupportsSlash())
	assert.Nil(t, adapter.SlashDefinition())
	assert.Equal(t, "echo", adapter.AIDefinition().Name)
}

func TestAdapterRejectsUnsupportedInvocation(t *testing.T) {
	adapter := &command.DiscordAdapter{Cmd: &aiOnly{}}
	err := adapter.Run(context.Background(), &cmd.Invocation{Data: &command.SlashInteractionContext{}})
	assert.ErrorIs(t, err, command.ErrUnsupportedInvocation)
}

func TestAdapterDispatchesMessage(t *testing.T) {
	s := &commandtest.Session{}
	adapter := &command.DiscordAdapter{Cmd: &aiOnly{}}
	mctx := &command.MessageContext{Session: s, Event: &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "c1"}}}

	require.NoError(t, adapter.Run(context.Background(), &cmd.Invocation{Data: mctx}))
	require.Len(t, s.Messages(), 1)
	assert.Equal(t, "ai only", s.Messages()[0].Content)
}

func TestRegisterCommandInAndAdapterLookup(t *testing.T) {
	r := cmd.NewRegistry()
	command.RegisterCommandIn(r, &aiOnly{}, func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, c.Run)
	})

	c, ok := r.Get("echo")
	require.True(t, ok)
	a, ok := command.Adapter(c)
	require.True(t, ok)
	assert.Equal(t, "echo", a.Group())
}

func TestAIResultJSON(t *testing.T) {
	assert.Equal(t, `{"ok":true}`, command.AIOK(nil).JSON())
	assert.Equal(t, `{"error":"nope"}`, command.AIError("nope").JSON())
	assert.True(t, command.AIError("nope").Failed())
}

func TestAIContextAccessors(t *testing.T) {
	var empty command.AIContext
	assert.False(t, empty.InGuild())
	assert.Empty(t, empty.GuildID())
	assert.Empty(t, empty.ChannelID())

	dm := command.AIContext{Message: &discordgo.Message{ChannelID: "dm"}}
	assert.False(t, dm.InGuild())
	assert.Equal(t, "dm", dm.ChannelID())
}

func TestChannelPermission(t *testing.T) {
	tests := []struct {
		name    string
		session *commandtest.Session
		user    string
		want    command.PermissionState
	}{
		{"granted", &commandtest.Session{Perms: discordgo.PermissionSendMessages | discordgo.PermissionViewChannel}, "bot", command.PermissionGranted},
		{"denied", &commandtest.Session{Perms: discordgo.PermissionViewChannel}, "bot", command.PermissionDenied},
		{"lookup error", &commandtest.Session{PermErr: errors.New("boom")}, "bot", command.PermissionUnknown},
		{"missing user", &commandtest.Session{Perms: discordgo.PermissionSendMessages}, "", command.PermissionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := command.ChannelPermission(tt.session, tt.user, "chan", discordgo.PermissionSendMessages)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == command.PermissionGranted, got.Granted())
		})
	}

	assert.Equal(t, command.PermissionUnknown, command.ChannelPermission(nil, "bot", "chan", discordgo.PermissionSendMessages))
	assert.Equal(t, "unknown", command.PermissionUnknown.String())
}
