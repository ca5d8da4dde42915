package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	DeveloperID           string   `env:"DEVELOPER_ID"`
	InitSlashCommands     bool     `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	CommandPrefix         string   `env:"COMMAND_PREFIX" envDefault:"!"`

	StoragePath string `env:"STORAGE_PATH" envDefault:"data/datastore.json"`
	CommandsDir string `env:"COMMANDS_CACHE_DIR" envDefault:"data/commands"`

	PollRetention     time.Duration `env:"POLL_RETENTION" envDefault:"720h"`
	PollPruneInterval time.Duration `env:"POLL_PRUNE_INTERVAL" envDefault:"1h"`

	OpenAIKey      string  `env:"OPENAI_API_KEY"`
	OpenAIModel    string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL  string  `env:"OPENAI_BASE_URL"`
	AISystemPrompt string  `env:"AI_SYSTEM_PROMPT" envDefault:"You are a helpful Discord bot. Use the available tools when the user asks for something they can do, such as creating a poll."`
	AIMaxSteps     int     `env:"AI_MAX_STEPS" envDefault:"4"`
	AIGuildRPS     float64 `env:"AI_GUILD_RPS" envDefault:"0.2"`
	AIGuildBurst   int     `env:"AI_GUILD_BURST" envDefault:"3"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks what the Discord bot needs to start. The CLI does not call it.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	if c.AIMaxSteps < 1 {
		return fmt.Errorf("AI_MAX_STEPS must be positive, got %d", c.AIMaxSteps)
	}
	if c.AIGuildBurst < 1 {
		return fmt.Errorf("AI_GUILD_BURST must be positive, got %d", c.AIGuildBurst)
	}
	return nil
}

// AIEnabled reports whether an LLM backend is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

func IsDeveloper(cfg *Config, userID string) bool {
	return cfg != nil && cfg.DeveloperID != "" && cfg.DeveloperID == userID
}

func (c *Config) IsGuildBlacklisted(guildID string) bool {
	return slices.Contains(c.DiscordGuildBlacklist, guildID)
}
