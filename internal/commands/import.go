package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/saldo/internal/importlog"
	"github.com/cleared-dev/saldo/internal/logging"
	"github.com/cleared-dev/saldo/internal/report"
	"github.com/cleared-dev/saldo/internal/session"
	"github.com/cleared-dev/saldo/internal/sheet"
)

type importOptions struct {
	account       string
	commit        bool
	partial       bool
	export        string
	referenceDate string
}

// statement is one file to import. inbox is set for files picked up from the
// ledger inbox, which are moved aside once committed.
type statement struct {
	path  string
	name  string
	inbox bool
}

func newImportCommand() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Reconcile bank statements and optionally commit them",
		Long: `Reads each statement (.xlsx, .xls or .csv), replays its running balance,
checks it against the account's stored balance and prints a preview.
With --commit the clean rows are stored and the account balance updated.
Without files, every statement waiting in the ledger inbox is imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			return runImport(cmd, ws, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.account, "account", "", "bank account ID (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().BoolVar(&opts.commit, "commit", false, "store the batch when it reconciles")
	cmd.Flags().BoolVar(&opts.partial, "partial", false, "commit clean rows even when some rows are flagged")
	cmd.Flags().StringVar(&opts.export, "export", "", "write the preview to this CSV file")
	cmd.Flags().StringVar(&opts.referenceDate, "reference-date", "", "YYYY-MM-DD used to place dates printed without a year")

	return cmd
}

func runImport(cmd *cobra.Command, ws *workspace, opts importOptions, args []string) error {
	ref, err := referenceDate(opts.referenceDate, ws)
	if err != nil {
		return err
	}

	statements, err := collectStatements(ws.root, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(statements) == 0 {
		fmt.Fprintln(out, "No statements to import.")
		return nil
	}
	if opts.export != "" && len(statements) > 1 {
		return errors.New("--export needs exactly one statement")
	}

	sess := session.New(ws.ledger,
		session.WithLogger(ws.log),
		session.WithClock(func() time.Time { return ref }),
		session.WithPartialCommit(ws.cfg.Import.AllowPartialCommit || opts.partial),
		session.WithRecorder(importlog.NewSink(ws.root)),
	)

	if err := sess.SelectAccount(cmd.Context(), opts.account); err != nil {
		return err
	}
	if err := sess.Blocking(); err != nil {
		return fmt.Errorf("cannot import into %s: %w", opts.account, err)
	}

	failed := 0
	for _, st := range statements {
		if err := importStatement(cmd, ws, sess, st, opts); err != nil {
			failed++
			ws.log.WithError(err).WithField(logging.FieldFile, st.path).Error("Statement not imported")
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", st.name, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements not imported", failed, len(statements))
	}
	return nil
}

func importStatement(cmd *cobra.Command, ws *workspace, sess *session.Session, st statement, opts importOptions) error {
	grid, err := sheet.ReadFile(st.path)
	if err != nil {
		return err
	}

	rec, err := sess.Load(grid)
	if err != nil {
		return err
	}
	batch, _ := sess.Batch()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "== %s (%s)\n", st.name, batch.Bank.Name())
	if err := report.WritePreview(out, batch.Movements, rec); err != nil {
		return err
	}

	if opts.export != "" {
		if err := exportPreview(opts.export, batch); err != nil {
			return err
		}
		fmt.Fprintf(out, "Preview written to %s\n", opts.export)
	}

	if !opts.commit {
		fmt.Fprintln(out, "Not committed; pass --commit to store the batch.")
		return sess.Clear()
	}

	resp, err := sess.Commit(cmd.Context())
	if err != nil {
		_ = sess.Clear()
		return err
	}
	fmt.Fprintf(out, "Committed %d movements; balance is now %s\n", resp.Committed, resp.Balance.StringFixed(2))

	if st.inbox {
		if err := sheet.MarkProcessed(ws.root, st.name); err != nil {
			return err
		}
		ws.snapshot(cmd, "import: Archive "+st.name)
	}
	return nil
}

func exportPreview(path string, batch session.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export: %w", err)
	}

	if err := report.WriteCSV(f, batch.Movements); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export: %w", err)
	}
	return nil
}

func collectStatements(root string, args []string) ([]statement, error) {
	if len(args) > 0 {
		statements := make([]statement, len(args))
		for i, a := range args {
			statements[i] = statement{path: a, name: filepath.Base(a)}
		}
		return statements, nil
	}

	files, err := sheet.Scan(root)
	if err != nil {
		return nil, err
	}
	statements := make([]statement, len(files))
	for i, f := range files {
		statements[i] = statement{path: f.Path, name: f.Name, inbox: true}
	}
	return statements, nil
}

// referenceDate resolves --reference-date, then saldo.yaml, then today.
func referenceDate(flag string, ws *workspace) (time.Time, error) {
	if flag != "" {
		t, err := time.Parse("2006-01-02", flag)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing --reference-date %q: %w", flag, err)
		}
		return t, nil
	}
	return ws.cfg.Import.Reference(time.Now())
}
