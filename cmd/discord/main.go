package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/keshon/pollbot/internal/command/core"
	_ "github.com/keshon/pollbot/internal/command/poll"

	"github.com/keshon/pollbot/internal/ai"
	"github.com/keshon/pollbot/internal/ai/openai"
	"github.com/keshon/pollbot/internal/config"
	"github.com/keshon/pollbot/internal/discord"
	"github.com/keshon/pollbot/internal/logging"
	"github.com/keshon/pollbot/internal/middleware"
	"github.com/keshon/pollbot/internal/storage"
	"github.com/keshon/pollbot/internal/version"
	"github.com/keshon/pollbot/pkg/cmd"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	log.Info().Str("version", version.Version).Msgf("Starting %s bot", version.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StoragePath).Msg("Failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	middleware.SetDeveloperID(cfg.DeveloperID)

	go storage.RunPollPruner(ctx, store, cfg.PollPruneInterval, cfg.PollRetention)

	var opts []discord.Option
	if cfg.AIEnabled() {
		tools, err := ai.NewToolset(cmd.DefaultRegistry)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build AI tools")
		}
		var providerOpts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			providerOpts = append(providerOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		agent := ai.NewAgent(
			openai.New(cfg.OpenAIKey, cfg.OpenAIModel, providerOpts...),
			tools,
			ai.WithSystemPrompt(cfg.AISystemPrompt),
			ai.WithMaxSteps(cfg.AIMaxSteps),
			ai.WithGuildLimiter(ai.NewGuildLimiter(cfg.AIGuildRPS, cfg.AIGuildBurst)),
		)
		opts = append(opts, discord.WithAgent(agent))
		log.Info().Str("model", cfg.OpenAIModel).Int("tools", tools.Len()).Msg("AI agent enabled")
	} else {
		log.Warn().Msg("OPENAI_API_KEY is not set, AI commands are disabled")
	}

	bot := discord.New(cfg, store, opts...)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	if err := runUntilSignal(ctx, cancel, sig, bot.Run); err != nil {
		log.Error().Err(err).Msg("Discord bot error")
		return
	}
	log.Info().Msg("Discord bot exited cleanly")
}

// runUntilSignal runs run until it returns or a signal arrives. On a signal it
// cancels ctx and waits for run to finish, so the gateway session is closed
// before deferred cleanup (storage flush) runs.
func runUntilSignal(ctx context.Context, cancel context.CancelFunc, sig <-chan os.Signal, run func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Shutting down")
		cancel()
		return <-errCh
	case err := <-errCh:
		cancel()
		return err
	}
}
