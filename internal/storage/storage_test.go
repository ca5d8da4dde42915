package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/keshon/pollbot/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewWithConfig(&datastore.Config{FilePath: filepath.Join(t.TempDir(), "store.json")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCommandHistoryIsCapped(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < commandHistoryLimit+5; i++ {
		require.NoError(t, s.AppendCommandToHistory("g1", CommandHistoryRecord{
			Command: fmt.Sprintf("cmd%d", i),
			Source:  "slash",
		}))
	}

	history, err := s.FetchCommandHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, commandHistoryLimit)
	assert.Equal(t, "cmd5", history[0].Command)
	assert.False(t, history[0].Datetime.IsZero())

	empty, err := s.FetchCommandHistory("other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGroupToggle(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.DisableGroup("g1", "poll"))
	require.NoError(t, s.DisableGroup("g1", "poll"))

	disabled, err := s.IsGroupDisabled("g1", "poll")
	require.NoError(t, err)
	assert.True(t, disabled)

	groups, err := s.GetDisabledGroups("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"poll"}, groups)

	require.NoError(t, s.EnableGroup("g1", "poll"))
	disabled, err = s.IsGroupDisabled("g1", "poll")
	require.NoError(t, err)
	assert.False(t, disabled)

	disabled, err = s.IsGroupDisabled("", "poll")
	require.NoError(t, err)
	assert.False(t, disabled)
}

func TestPollsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	first, err := s.AppendPoll("g1", PollRecord{Question: "Tea or coffee?", Answers: 2, CreatedAt: base})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = s.AppendPoll("g1", PollRecord{Question: "Cats or dogs?", Answers: 2, CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	polls, err := s.FetchPolls("g1")
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, "Cats or dogs?", polls[0].Question)
	assert.Equal(t, first.ID, polls[1].ID)
	assert.Equal(t, []string{"g1"}, s.Guilds())
}

func TestUpdateRequiresGuild(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.AppendPoll("", PollRecord{Question: "q"})
	assert.Error(t, err)
}

func TestPrunePolls(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	_, err := s.AppendPoll("g1", PollRecord{MessageID: "old", DurationHours: 1, CreatedAt: now.Add(-72 * time.Hour)})
	require.NoError(t, err)
	_, err = s.AppendPoll("g1", PollRecord{MessageID: "open", DurationHours: 32, CreatedAt: now.Add(-30 * time.Hour)})
	require.NoError(t, err)
	_, err = s.AppendPoll("g2", PollRecord{MessageID: "old2", DurationHours: 24, CreatedAt: now.Add(-96 * time.Hour)})
	require.NoError(t, err)

	removed, err := s.PrunePolls(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	polls, err := s.FetchPolls("g1")
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, "open", polls[0].MessageID)

	polls, err = s.FetchPolls("g2")
	require.NoError(t, err)
	assert.Empty(t, polls)
}
