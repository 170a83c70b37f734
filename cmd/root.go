package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"lotto/config"
)

// NewRootCommand assembles the lotto command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "lotto",
		Short:        "Whole-balance lottery over a shared ledger",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// surface config errors before config.Get would panic on them
			if _, err := config.Load(); err != nil {
				return err
			}
			setupLogging(config.Get())
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPlayCmd(),
		newRulesCmd(),
		newHistoryCmd(),
		newSeedCmd(),
		newSimulateCmd(),
	)

	return root
}

// Execute runs the command tree until ctx is cancelled or the command returns
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(strings.TrimSpace(cfg.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
