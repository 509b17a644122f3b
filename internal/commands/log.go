package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/saldo/internal/importlog"
)

func newLogCommand() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the import log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}

			entries, err := importlog.Read(ws.root)
			if err != nil {
				return err
			}
			if account != "" {
				entries = importlog.ForAccount(entries, account)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTION\tACCOUNT\tBATCH\tDETAILS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Local().Format(time.DateTime), e.Action, e.AccountID, e.BatchID, e.Details)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "only show entries for this account")
	return cmd
}
