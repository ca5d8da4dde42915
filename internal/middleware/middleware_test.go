package middleware

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/keshon/pollbot/internal/command"
	"github.com/keshon/pollbot/internal/command/commandtest"
	"github.com/keshon/pollbot/internal/storage"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommand struct {
	perms []int64
	runs  int
	err   error
}

func (f *fakeCommand) Name() string             { return "fake" }
func (f *fakeCommand) Description() string      { return "fake command" }
func (f *fakeCommand) Group() string            { return "fake" }
func (f *fakeCommand) Category() string         { return "Testing" }
func (f *fakeCommand) UserPermissions() []int64 { return f.perms }

func (f *fakeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: "fake", Description: "fake command"}
}

func (f *fakeCommand) Slash(ctx context.Context, sctx *command.SlashInteractionContext) error {
	f.runs++
	return f.err
}

func (f *fakeCommand) Message(ctx context.Context, mctx *command.MessageContext) error {
	f.runs++
	return f.err
}

func (f *fakeCommand) AIDefinition() *command.AIDefinition {
	return &command.AIDefinition{Name: "fake"}
}

func (f *fakeCommand) AI(ctx context.Context, actx *command.AIContext) (command.AIResult, error) {
	f.runs++
	return command.AIOK(nil), f.err
}

func newStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func slashInv(s command.Session, st *storage.Storage, guildID string) (*cmd.Invocation, *command.SlashInteractionContext) {
	sctx := &command.SlashInteractionContext{
		Session: s,
		Storage: st,
		Event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			GuildID:   guildID,
			ChannelID: "c1",
			Member:    &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "alice"}},
		}},
	}
	return &cmd.Invocation{Data: sctx}, sctx
}

func messageInv(s command.Session, st *storage.Storage, guildID string) *cmd.Invocation {
	return &cmd.Invocation{Data: &command.MessageContext{
		Session: s,
		Storage: st,
		Event: &discordgo.MessageCreate{Message: &discordgo.Message{
			ID:        "m1",
			GuildID:   guildID,
			ChannelID: "c1",
			Author:    &discordgo.User{ID: "u1", Username: "alice"},
		}},
	}}
}

func aiInv(s command.Session, st *storage.Storage, guildID string) (*cmd.Invocation, *command.AIContext) {
	actx := &command.AIContext{
		Session: s,
		Storage: st,
		BotID:   "bot",
		Message: &discordgo.Message{ID: "m1", GuildID: guildID, ChannelID: "c1", Author: &discordgo.User{ID: "u1", Username: "alice"}},
	}
	return &cmd.Invocation{Data: actx}, actx
}

func wrap(f *fakeCommand, mws ...cmd.Middleware) cmd.Command {
	return cmd.Apply(&command.DiscordAdapter{Cmd: f}, mws...)
}

func TestGuildOnly(t *testing.T) {
	ctx := context.Background()

	t.Run("slash in DM is refused ephemerally", func(t *testing.T) {
		f, s := &fakeCommand{}, &commandtest.Session{}
		inv, _ := slashInv(s, nil, "")
		require.NoError(t, wrap(f, WithGuildOnly()).Run(ctx, inv))
		assert.Zero(t, f.runs)
		resp := s.LastResponse()
		require.NotNil(t, resp)
		assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
		assert.Equal(t, guildOnlyMessage, resp.Data.Embeds[0].Description)
	})

	t.Run("message in DM gets a reply", func(t *testing.T) {
		f, s := &fakeCommand{}, &commandtest.Session{}
		require.NoError(t, wrap(f, WithGuildOnly()).Run(ctx, messageInv(s, nil, "")))
		assert.Zero(t, f.runs)
		require.Len(t, s.Messages(), 1)
		assert.Equal(t, guildOnlyMessage, s.Messages()[0].Content)
		assert.Equal(t, "m1", s.Messages()[0].Reference.MessageID)
	})

	t.Run("AI passes through", func(t *testing.T) {
		f, s := &fakeCommand{}, &commandtest.Session{}
		inv, _ := aiInv(s, nil, "")
		require.NoError(t, wrap(f, WithGuildOnly()).Run(ctx, inv))
		assert.Equal(t, 1, f.runs)
	})

	t.Run("guild runs", func(t *testing.T) {
		f, s := &fakeCommand{}, &commandtest.Session{}
		inv, _ := slashInv(s, nil, "g1")
		require.NoError(t, wrap(f, WithGuildOnly()).Run(ctx, inv))
		assert.Equal(t, 1, f.runs)
	})
}

func TestGroupAccessCheck(t *testing.T) {
	ctx := context.Background()
	st := newStorage(t)
	require.NoError(t, st.DisableGroup("g1", "fake"))

	t.Run("slash is refused", func(t *testing.T) {
		f, s := &fakeCommand{}, &commandtest.Session{}
		inv, _ := slashInv(s, st, "g1")
		require.NoError(t, wrap(f, WithGroupAccessCheck()).Run(ctx, inv))
		assert.Zero(t, f.runs)
		require.NotNil(t, s.LastResponse())
	})

	t.Run("message is ignored", func(t *testing.T) {
		f, s := &fakeCommand{}, &commandtest.Session{}
		require.NoError(t, wrap(f, WithGroupAccessCheck()).Run(ctx, messageInv(s, st, "g1")))
		assert.Zero(t, f.runs)
		assert.Empty(t, s.Messages())
	})

	t.Run("AI gets an error result", func(t *testing.T) {
		f, s := &fakeCommand{}, &commandtest.Session{}
		inv, actx := aiInv(s, st, "g1")
		require.NoError(t, wrap(f, WithGroupAccessCheck()).Run(ctx, inv))
		assert.Zero(t, f.runs)
		assert.Equal(t, disabledMessage, actx.Result.Error)
	})

	t.Run("other guild runs", func(t *testing.T) {
		f, s := &fakeCommand{}, &commandtest.Session{}
		inv, _ := aiInv(s, st, "g2")
		require.NoError(t, wrap(f, WithGroupAccessCheck()).Run(ctx, inv))
		assert.Equal(t, 1, f.runs)
	})
}

func TestUserPermissionCheck(t *testing.T) {
	ctx := context.Background()
	required := []int64{discordgo.PermissionManageGuild}

	tests := []struct {
		name    string
		perms   int64
		dev     string
		wantRun bool
	}{
		{"has permission", discordgo.PermissionManageGuild, "", true},
		{"administrator bypass", discordgo.PermissionAdministrator, "", true},
		{"developer bypass", 0, "u1", true},
		{"missing", discordgo.PermissionSendMessages, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeCommand{perms: required}
			s := &commandtest.Session{Perms: tt.perms}
			SetDeveloperID(tt.dev)
			t.Cleanup(func() { SetDeveloperID("") })
			inv, _ := slashInv(s, nil, "g1")
			require.NoError(t, wrap(f, WithUserPermissionCheck()).Run(ctx, inv))
			assert.Equal(t, tt.wantRun, f.runs == 1)
			if !tt.wantRun {
				resp := s.LastResponse()
				require.NotNil(t, resp)
				assert.Contains(t, resp.Data.Embeds[0].Description, "Manage Server")
			}
		})
	}

	t.Run("AI without permission gets an error result", func(t *testing.T) {
		f := &fakeCommand{perms: required}
		s := &commandtest.Session{}
		inv, actx := aiInv(s, nil, "g1")
		require.NoError(t, wrap(f, WithUserPermissionCheck()).Run(ctx, inv))
		assert.Zero(t, f.runs)
		assert.True(t, actx.Result.Failed())
	})

	t.Run("lookup failure is an error", func(t *testing.T) {
		f := &fakeCommand{perms: required}
		s := &commandtest.Session{PermErr: errors.New("boom")}
		err := wrap(f, WithUserPermissionCheck()).Run(ctx, messageInv(s, nil, "g1"))
		assert.ErrorContains(t, err, "boom")
		assert.Zero(t, f.runs)
	})

	t.Run("no required permissions skips lookup", func(t *testing.T) {
		f := &fakeCommand{}
		s := &commandtest.Session{}
		require.NoError(t, wrap(f, WithUserPermissionCheck()).Run(ctx, messageInv(s, nil, "g1")))
		assert.Equal(t, 1, f.runs)
		assert.Zero(t, s.PermLookups)
	})
}

func TestCommandLogger(t *testing.T) {
	ctx := context.Background()
	st := newStorage(t)
	s := &commandtest.Session{}

	inv, _ := slashInv(s, st, "g1")
	require.NoError(t, wrap(&fakeCommand{}, WithCommandLogger()).Run(ctx, inv))
	require.NoError(t, wrap(&fakeCommand{}, WithCommandLogger()).Run(ctx, messageInv(s, st, "g1")))

	failing := &fakeCommand{err: errors.New("send failed")}
	aiv, _ := aiInv(s, st, "g1")
	assert.Error(t, wrap(failing, WithCommandLogger()).Run(ctx, aiv))

	history, err := st.FetchCommandHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	var sources []string
	for _, h := range history {
		sources = append(sources, h.Source)
		assert.Equal(t, "fake", h.Command)
		assert.Equal(t, "alice", h.Username)
	}
	assert.Equal(t, []string{"slash", "message", "ai"}, sources)
}

func TestCommandLoggerSkipsDMs(t *testing.T) {
	st := newStorage(t)
	inv, _ := slashInv(&commandtest.Session{}, st, "")
	require.NoError(t, wrap(&fakeCommand{}, WithCommandLogger()).Run(context.Background(), inv))
	assert.Empty(t, st.Guilds())
}
