package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/keshon/wraith/internal/mind"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the persisted mood and memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := mind.NewStore(cfg.StateFile, cfg.StateBackups, logger)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(store.Load())
	},
}
