package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lotto/config"
	"lotto/database"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the ledger schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := database.MigrateUp(config.Get().MigrationTarget()); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Migrations applied.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				if err := database.MigrateDown(config.Get().MigrationTarget(), steps); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Rolled back %d migration(s).", steps))
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := database.MigrateStatus(config.Get().MigrationTarget())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !status.Applied {
					printWarn(out, "No migrations applied.")
					return nil
				}
				if status.Dirty {
					printError(out, fmt.Sprintf("Version %d (dirty)", status.Version))
					return nil
				}
				printInfo(out, fmt.Sprintf("Version %d", status.Version))
				return nil
			},
		},
	)

	return migrateCmd
}
