// Package ledger is a directory-backed store for bank accounts and the
// movements committed into them.
//
// Layout under the ledger root:
//
//	accounts/bank-accounts.csv      one row per bank account with its balance
//	movements/<account-id>.csv      append-only committed movements
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/saldo/internal/csvfile"
	"github.com/cleared-dev/saldo/internal/logging"
	"github.com/cleared-dev/saldo/internal/model"
	"github.com/cleared-dev/saldo/internal/session"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

const (
	accountsDir  = "accounts"
	accountsFile = "bank-accounts.csv"
	movementsDir = "movements"
)

// Committer records a snapshot of the ledger directory.
type Committer interface {
	CommitAll(ctx context.Context, message string) (string, error)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(lg *Ledger) { lg.log = l }
}

// WithCommitter snapshots the ledger after every committed batch.
func WithCommitter(c Committer) Option {
	return func(lg *Ledger) { lg.git = c }
}

// Ledger implements session.Store over a directory of CSV files.
type Ledger struct {
	root    string
	log     logrus.FieldLogger
	git     Committer
	replace func(oldpath, newpath string) error

	mu sync.Mutex
}

var _ session.Store = (*Ledger)(nil)

// Open returns a Ledger rooted at root. Files are created on first write.
func Open(root string, opts ...Option) *Ledger {
	l := &Ledger{root: root, log: logging.Discard(), replace: os.Rename}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Root returns the ledger directory.
func (l *Ledger) Root() string { return l.root }

// Init writes an empty bank-accounts.csv unless one exists.
func (l *Ledger) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.root, accountsDir, accountsFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return l.writeAccounts(nil)
}

// Accounts returns every bank account in file order.
func (l *Ledger) Accounts() ([]model.BankAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAccounts()
}

// Account returns one bank account by ID.
func (l *Ledger) Account(ctx context.Context, id string) (model.BankAccount, error) {
	if err := ctx.Err(); err != nil {
		return model.BankAccount{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	accts, err := l.readAccounts()
	if err != nil {
		return model.BankAccount{}, err
	}
	for _, a := range accts {
		if a.ID == id {
			return a, nil
		}
	}
	return model.BankAccount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
}

// AddAccount appends a new bank account. The bank name is stored as given so
// that accounts at banks without a parser can still be registered.
func (l *Ledger) AddAccount(acct model.BankAccount) error {
	if strings.TrimSpace(acct.ID) == "" {
		return errors.New("account ID is required")
	}
	if strings.ContainsAny(acct.ID, `/\`) {
		return fmt.Errorf("account ID %q must not contain path separators", acct.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	accts, err := l.readAccounts()
	if err != nil {
		return err
	}
	for _, a := range accts {
		if a.ID == acct.ID {
			return fmt.Errorf("%w: %s", ErrAccountExists, acct.ID)
		}
	}
	return l.writeAccounts(append(accts, acct))
}

// Movements returns the committed movements of an account.
func (l *Ledger) Movements(accountID string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.movementsPath(accountID)
	entries, err := csvfile.ReadFile(path, movNumFields, UnmarshalEntry)
	if err != nil {
		return nil, fmt.Errorf("reading movements %s: %w", path, err)
	}
	return entries, nil
}

// Commit appends a batch to the account's movements and sets the account
// balance to the batch's closing balance. Either both files change or
// neither does, so a failed commit can be retried with the same request.
func (l *Ledger) Commit(ctx context.Context, req session.CommitRequest) (session.CommitResponse, error) {
	if err := ctx.Err(); err != nil {
		return session.CommitResponse{}, err
	}
	if verrs := ValidateMovements(req.Movements); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return session.CommitResponse{}, fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	accts, err := l.readAccounts()
	if err != nil {
		return session.CommitResponse{}, err
	}
	idx := -1
	for i, a := range accts {
		if a.ID == req.AccountID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return session.CommitResponse{}, fmt.Errorf("%w: %s", ErrAccountNotFound, req.AccountID)
	}

	batchID := req.BatchID.String()
	entries := make([]Entry, len(req.Movements))
	for i, m := range req.Movements {
		entries[i] = Entry{BatchID: batchID, Movement: m}
	}
	rollback, err := l.appendEntries(req.AccountID, entries)
	if err != nil {
		return session.CommitResponse{}, err
	}

	accts[idx].Balance.Decimal = req.ClosingBalance
	accts[idx].Balance.Valid = true
	if err := l.writeAccounts(accts); err != nil {
		if rerr := rollback(); rerr != nil {
			l.log.WithError(rerr).WithField(logging.FieldAccount, req.AccountID).
				Error("Failed to roll back movements; the file may hold an unrecorded batch")
		}
		return session.CommitResponse{}, err
	}

	log := l.log.WithFields(logrus.Fields{
		logging.FieldAccount: req.AccountID,
		logging.FieldBatch:   batchID,
		logging.FieldCount:   len(entries),
	})
	log.Info("Batch stored")

	if l.git != nil {
		msg := fmt.Sprintf("Import %d movements into %s (batch %s)", len(entries), req.AccountID, batchID)
		if hash, err := l.git.CommitAll(ctx, msg); err != nil {
			log.WithError(err).Warn("Failed to snapshot ledger")
		} else {
			log.WithField("commit", hash).Debug("Ledger snapshot")
		}
	}

	return session.CommitResponse{Balance: req.ClosingBalance, Committed: len(entries)}, nil
}

// readAccounts loads bank-accounts.csv. Caller holds l.mu.
func (l *Ledger) readAccounts() ([]model.BankAccount, error) {
	accts, err := csvfile.ReadFile(filepath.Join(l.root, accountsDir, accountsFile), acctNumFields, UnmarshalAccount)
	if err != nil {
		return nil, fmt.Errorf("reading bank accounts: %w", err)
	}
	return accts, nil
}

// writeAccounts replaces bank-accounts.csv through a rename so readers never
// see a partial file. Caller holds l.mu.
func (l *Ledger) writeAccounts(accts []model.BankAccount) error {
	dir := filepath.Join(l.root, accountsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, accountsFile+".*")
	if err != nil {
		return fmt.Errorf("creating bank accounts file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteAccounts(tmp, accts); err != nil {
		tmp.Close()
		return fmt.Errorf("writing bank accounts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing bank accounts: %w", err)
	}
	if err := l.replace(tmp.Name(), filepath.Join(dir, accountsFile)); err != nil {
		return fmt.Errorf("replacing bank accounts: %w", err)
	}
	return nil
}

// appendEntries appends to movements/<account>.csv. The returned rollback
// removes what was appended. Caller holds l.mu.
func (l *Ledger) appendEntries(accountID string, entries []Entry) (rollback func() error, err error) {
	rollback, err = csvfile.Append(l.movementsPath(accountID), MovementsHeader, marshalEntries(entries))
	if err != nil {
		return nil, fmt.Errorf("appending movements: %w", err)
	}
	return rollback, nil
}

func (l *Ledger) movementsPath(accountID string) string {
	return filepath.Join(l.root, movementsDir, accountID+".csv")
}
