package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keshon/wraith/internal/ai"
	"github.com/keshon/wraith/internal/content"
	"github.com/keshon/wraith/internal/mind"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Generate one post from the saved state and print it without publishing",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := mind.NewStore(cfg.StateFile, cfg.StateBackups, logger)
		if err != nil {
			return err
		}
		state := store.Load()

		// nothing is written back
		engine := mind.NewMoodEngine(&state.Mood, nil, nil, logger)
		personality := mind.NewPersonality(loadPersona(), nil)
		client := ai.NewOllamaClient(cfg.OllamaURL, cfg.Model)
		gen := content.New(client, engine, personality, &state.Memory, nil, content.Options{
			PromptMood: cfg.PromptMood,
			Decorate:   cfg.Decorate,
		}, logger)

		post, err := gen.Draft(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), post)
		return nil
	},
}
