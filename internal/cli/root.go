package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragchat/internal/bootstrap"
	"ragchat/internal/config"
	"ragchat/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Operate the ragchat document index",
	Long: `ragctl ingests documents into the vector collection, asks questions
against it and manages the collection itself.

Example usage:
  ragctl ingest "docs/**/*.pdf"          # Index every PDF under docs/
  ragctl ask "Jakie są godziny otwarcia?"
  ragctl collection count`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile != "" {
			cfg, err = config.LoadFile(cfgFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_FILE or configs/config.toml)")
}

// openApp builds the application without the ledger consumer, logging
// warnings and errors only.
func openApp(cmd *cobra.Command) (*bootstrap.App, error) {
	return openAppWith(cmd, bootstrap.Options{})
}

func openAppWith(cmd *cobra.Command, opts bootstrap.Options) (*bootstrap.App, error) {
	log, err := logger.New(logger.Options{File: cfg.Log.File, Level: "warn"})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	opts.SkipWorkers = true
	opts.Logger = log
	app, err := bootstrap.NewWithConfig(cmd.Context(), cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return app, nil
}
