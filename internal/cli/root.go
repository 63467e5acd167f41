package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spscricket/player-service/internal/infra"
)

// env is the state shared by every subcommand once the root has loaded config.
type env struct {
	envFile string
	out     io.Writer
	cfg     *infra.Config
	logger  *slog.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	e := &env{out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:   "player-service",
		Short: "Cricket player registry service",
		Long: `player-service stores cricket player records in PostgreSQL and serves
them over a JSON REST API under /api/players.

Configuration comes from the environment (optionally seeded from a .env file).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := infra.LoadConfig(e.envFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			e.cfg = cfg
			e.logger = infra.NewLogger(e.out, cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(e.logger)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&e.envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")

	rootCmd.AddCommand(newServeCmd(e))
	rootCmd.AddCommand(newMigrateCmd(e))
	rootCmd.AddCommand(newRelayCmd(e))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
