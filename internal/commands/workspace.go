package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/saldo/internal/config"
	"github.com/cleared-dev/saldo/internal/gitops"
	"github.com/cleared-dev/saldo/internal/ledger"
	"github.com/cleared-dev/saldo/internal/logging"
)

// workspace is an opened ledger directory with its config and logger.
type workspace struct {
	root   string
	cfg    *config.Config
	log    *logrus.Logger
	repo   gitops.Repo
	ledger *ledger.Ledger
}

// openWorkspace loads saldo.yaml from the --ledger directory.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	dir, _ := cmd.Flags().GetString("ledger")
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("%s is not a saldo ledger (run saldo init): %w", root, err)
	}

	log := newLogger(cmd, cfg)
	repo := gitops.Repo{Dir: root, AuthorName: cfg.Git.AuthorName, AuthorEmail: cfg.Git.AuthorEmail}

	opts := []ledger.Option{ledger.WithLogger(log)}
	if cfg.Git.AutoCommit && repo.IsRepo() {
		opts = append(opts, ledger.WithCommitter(repo))
	}

	return &workspace{
		root:   root,
		cfg:    cfg,
		log:    log,
		repo:   repo,
		ledger: ledger.Open(root, opts...),
	}, nil
}

// newLogger picks the level from --log-level, then LOG_LEVEL, then config.
func newLogger(cmd *cobra.Command, cfg *config.Config) *logrus.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = cfg.Log.Level
	}
	if level == "" {
		level = "info"
	}
	log := logging.New(level, cfg.Log.Format)
	log.SetOutput(cmd.ErrOrStderr())
	return log
}

// snapshot commits the ledger when auto-commit is on. Failures are logged.
func (ws *workspace) snapshot(cmd *cobra.Command, message string) {
	if !ws.cfg.Git.AutoCommit || !ws.repo.IsRepo() {
		return
	}
	if _, err := ws.repo.CommitAll(cmd.Context(), message); err != nil {
		ws.log.WithError(err).Warn("Failed to snapshot ledger")
	}
}
