package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.DiscordToken)
	assert.Equal(t, "data/datastore.json", cfg.StoragePath)
	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.Equal(t, 4, cfg.AIMaxSteps)
	assert.True(t, cfg.InitSlashCommands)
	assert.Equal(t, 30*24*time.Hour, cfg.PollRetention)
	assert.False(t, cfg.AIEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_GUILD_BLACKLIST", "1,2")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AI_MAX_STEPS", "2")
	t.Setenv("DEVELOPER_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsGuildBlacklisted("2"))
	assert.False(t, cfg.IsGuildBlacklisted("3"))
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, 2, cfg.AIMaxSteps)
	assert.True(t, IsDeveloper(cfg, "42"))
	assert.False(t, IsDeveloper(cfg, "43"))
	assert.False(t, IsDeveloper(nil, "42"))
}

func TestValidate(t *testing.T) {
	cfg := &Config{AIMaxSteps: 1, AIGuildBurst: 1}
	assert.EqualError(t, cfg.Validate(), "DISCORD_TOKEN is not set")

	cfg.DiscordToken = "token"
	cfg.AIMaxSteps = 0
	assert.Error(t, cfg.Validate())
}

func TestCategoryWeight(t *testing.T) {
	assert.Less(t, CategoryWeight("🕯️ Information"), CategoryWeight("📊 Polls"))
	assert.Equal(t, 1000, CategoryWeight("unknown"))
}
