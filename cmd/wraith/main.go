// cmd/wraith/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/wraith/internal/config"
	"github.com/keshon/wraith/internal/logging"
	"github.com/keshon/wraith/internal/mind"
	v "github.com/keshon/wraith/internal/version"
)

var (
	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           v.AppName,
	Short:         "Autonomous posting agent with a moody persona",
	Version:       v.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.New()
		if err != nil {
			return err
		}
		logger, logCloser, err = logging.New(logging.Options{
			Dir:     cfg.LogDir,
			Level:   cfg.LogLevel,
			Console: !cfg.Production(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd, draftCmd, stateCmd)
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:]))
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logCloser != nil {
			logger.Error().Err(err).Msg("exiting")
			_ = logCloser.Close()
		}
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// loadPersona falls back to the built-in persona when the file cannot be used.
func loadPersona() mind.Persona {
	p, err := mind.LoadPersona(cfg.PersonaFile)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.PersonaFile).Msg("using built-in persona")
		return mind.DefaultPersona()
	}
	return p
}
