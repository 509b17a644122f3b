package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/saldo/internal/importer"
	"github.com/cleared-dev/saldo/internal/model"
)

func newAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage bank accounts",
	}
	cmd.AddCommand(newAccountAddCommand(), newAccountListCommand())
	return cmd
}

func newAccountAddCommand() *cobra.Command {
	var name, bank, balance string

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Register a bank account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}

			acct := model.BankAccount{ID: args[0], Name: name, Bank: bank}
			if balance != "" {
				d, err := decimal.NewFromString(balance)
				if err != nil {
					return fmt.Errorf("parsing --balance %q: %w", balance, err)
				}
				acct.Balance = decimal.NullDecimal{Decimal: d, Valid: true}
			}

			if err := ws.ledger.AddAccount(acct); err != nil {
				return err
			}
			ws.snapshot(cmd, "account: Add "+acct.ID)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added account %s (%s)\n", acct.ID, acct.Bank)
			if _, err := importer.Resolve(acct.Bank); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; statements for %s cannot be imported\n", err, acct.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&bank, "bank", "", "issuing bank (see saldo banks)")
	cmd.Flags().StringVar(&balance, "balance", "", "current balance; leave empty when unknown")
	_ = cmd.MarkFlagRequired("bank")

	return cmd
}

func newAccountListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bank accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			accts, err := ws.ledger.Accounts()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBANK\tBALANCE\tPARSER")
			for _, a := range accts {
				bal := "unknown"
				if a.Balance.Valid {
					bal = a.Balance.Decimal.StringFixed(2)
				}
				parser := "unsupported"
				if b, err := importer.Resolve(a.Bank); err == nil {
					parser = b.Name()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Bank, bal, parser)
			}
			return tw.Flush()
		},
	}
}

func newBanksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List banks with a statement parser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "BANK\tALIASES")
			for _, b := range importer.All() {
				fmt.Fprintf(tw, "%s\t%s\n", b.Name(), strings.Join(b.Aliases(), ", "))
			}
			return tw.Flush()
		},
	}
}
