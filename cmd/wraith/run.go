package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keshon/wraith/internal/ai"
	"github.com/keshon/wraith/internal/browser"
	"github.com/keshon/wraith/internal/content"
	"github.com/keshon/wraith/internal/mind"
	"github.com/keshon/wraith/internal/mirror"
	"github.com/keshon/wraith/internal/publisher"
	"github.com/keshon/wraith/internal/scheduler"
	"github.com/keshon/wraith/internal/session"
	v "github.com/keshon/wraith/internal/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Log in and post on a schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runAgent(ctx)
	},
}

// openPage launches Chrome and returns the working tab with its release func.
var openPage = func(opts browser.Options) (browser.Page, func() error, error) {
	b, err := browser.Launch(opts, logger)
	if err != nil {
		return nil, nil, err
	}
	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	return page, b.Close, nil
}

var loginTiming = session.DefaultTiming

func runAgent(ctx context.Context) error {
	logger.Info().Str("version", v.Version).Msgf("Starting %s...", v.AppName)

	store, err := mind.NewStore(cfg.StateFile, cfg.StateBackups, logger)
	if err != nil {
		return err
	}
	state := store.Load()

	engine := mind.NewMoodEngine(&state.Mood, store, nil, logger)
	personality := mind.NewPersonality(loadPersona(), nil)
	client := ai.NewOllamaClient(cfg.OllamaURL, cfg.Model)
	gen := content.New(client, engine, personality, &state.Memory, store, content.Options{
		PromptMood: cfg.PromptMood,
		Decorate:   cfg.Decorate,
	}, logger)

	opts := browser.DefaultOptions()
	opts.Bin = cfg.BrowserBin
	opts.Headless = cfg.Headless
	opts.UserAgent = cfg.UserAgent

	page, release, err := openPage(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn().Err(err).Msg("failed to close browser")
		}
	}()

	res := session.NewManager(cfg.LoginURL, cfg.Credentials(), logger).
		WithTiming(loginTiming()).
		Establish(ctx, page)
	switch res.Outcome {
	case session.Established:
	case session.NotAttempted:
		logger.Info().Msg("shutdown before login")
		return nil
	default:
		return fmt.Errorf("login %s after %d attempts: %w", res.Outcome, res.Attempts, res.Err)
	}

	var notifier publisher.Notifier
	if cfg.MirrorEnabled() {
		d, err := mirror.NewDiscord(cfg.DiscordToken, cfg.DiscordChannelID, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("discord mirror disabled")
		} else {
			notifier = d
		}
	}
	timing := publisher.DefaultTiming()
	timing.PerChar = opts.TypingDelay
	pub := publisher.New(&state.Memory, store, notifier, logger).WithTiming(timing)

	sched := scheduler.New(gen, pub, page, &state.Memory, store, scheduler.Config{
		Interval:   cfg.PostInterval,
		Variance:   cfg.PostVariance,
		StaleAfter: cfg.StaleAfter,
	}, logger)

	if err := sched.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("exited cleanly")
	return nil
}
