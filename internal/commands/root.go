package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/saldo/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "saldo",
		Short:   "Bank statement import and reconciliation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("ledger", ".", "ledger directory")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides LOG_LEVEL and saldo.yaml)")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(),
		newBanksCommand(),
		newImportCommand(),
		newLogCommand(),
	)

	return rootCmd
}
