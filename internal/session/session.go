// Package session sequences one statement import: select an account, load a
// statement grid, review the reconciliation and commit the accepted rows.
//
// Parsing, replay and validation are pure and run on the calling goroutine.
// The only blocking calls are the Store's account lookup and commit; the
// session lock is released around them. Every select/load cycle takes a new
// sequence number and a result that comes back under an older number is
// discarded with ErrStale.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/saldo/internal/balance"
	"github.com/cleared-dev/saldo/internal/importer"
	"github.com/cleared-dev/saldo/internal/logging"
	"github.com/cleared-dev/saldo/internal/model"
	"github.com/cleared-dev/saldo/internal/reconcile"
)

var (
	ErrNoAccount        = errors.New("no account selected")
	ErrEmptyStatement   = errors.New("statement has no movements")
	ErrNotReviewing     = errors.New("no batch under review")
	ErrNotReconciled    = errors.New("batch does not reconcile")
	ErrCommitInProgress = errors.New("a commit is already in progress")
	ErrStale            = errors.New("superseded by a newer request")
)

// State is the orchestrator's position in the import flow.
type State int

const (
	Idle State = iota
	Configuring
	Parsing
	Reviewing
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Parsing:
		return "parsing"
	case Reviewing:
		return "reviewing"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CommitRequest is what the store receives for an accepted batch.
type CommitRequest struct {
	BatchID        uuid.UUID
	AccountID      string
	Movements      []model.Movement // warning-free rows only, chronological
	ClosingBalance decimal.Decimal  // computed by replay
}

// CommitResponse reports the account balance after the store applied a batch.
type CommitResponse struct {
	Balance   decimal.Decimal
	Committed int
}

// Store is the persistence collaborator.
type Store interface {
	Account(ctx context.Context, id string) (model.BankAccount, error)
	Commit(ctx context.Context, req CommitRequest) (CommitResponse, error)
}

// Recorder receives an audit trail of session actions.
type Recorder interface {
	Record(action, accountID, batchID, details string) error
}

// Batch is a parsed, replayed and validated statement awaiting review.
type Batch struct {
	Bank           importer.Bank
	Movements      []model.Movement // chronological, as replayed
	Accepted       []model.Movement
	Rejected       []model.Movement
	Reconciliation model.Reconciliation
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock sets the source of the reference date for year-less statement dates.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithPartialCommit lets batches with flagged rows commit their clean rows.
func WithPartialCommit(allow bool) Option {
	return func(s *Session) { s.allowPartial = allow }
}

// WithRecorder sets the audit trail sink.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// Session owns the in-memory batch of one import flow.
type Session struct {
	store        Store
	log          logrus.FieldLogger
	now          func() time.Time
	allowPartial bool
	recorder     Recorder

	mu         sync.Mutex
	state      State
	cycle      uint64
	account    *model.BankAccount
	bank       importer.Bank
	blocking   error
	batch      *Batch
	committing bool
}

// New creates an idle Session backed by store.
func New(store Store, opts ...Option) *Session {
	s := &Session{
		store: store,
		log:   logging.Discard(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Account returns the selected account.
func (s *Session) Account() (model.BankAccount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return model.BankAccount{}, false
	}
	return *s.account, true
}

// Blocking returns the configuration problem preventing an import, if any.
func (s *Session) Blocking() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return ErrNoAccount
	}
	return s.blocking
}

// Batch returns the batch under review.
func (s *Session) Batch() (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch == nil {
		return Batch{}, false
	}
	return *s.batch, true
}

// SelectAccount loads the account from the store and discards any batch. An
// account whose bank has no parser is kept selected with a blocking error.
func (s *Session) SelectAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return ErrCommitInProgress
	}
	s.cycle++
	cycle := s.cycle
	s.reset(Idle)
	s.account = nil
	s.mu.Unlock()

	acct, err := s.store.Account(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cycle != s.cycle {
		return ErrStale
	}
	if err != nil {
		return fmt.Errorf("loading account %s: %w", id, err)
	}

	s.account = &acct
	s.state = Configuring
	s.bank, s.blocking = importer.Resolve(acct.Bank)

	log := s.log.WithFields(logrus.Fields{logging.FieldAccount: acct.ID, logging.FieldBank: acct.Bank})
	if s.blocking != nil {
		log.WithError(s.blocking).Warn("Account bank has no statement parser")
	} else {
		log.Info("Account selected")
	}
	s.record("select", acct.ID, "", fmt.Sprintf("bank=%s balance=%s", acct.Bank, formatBalance(acct.Balance)))
	return nil
}

// Load parses, replays and validates a statement grid against the selected
// account. On success the session is Reviewing. On a configuration failure or
// an empty statement it returns to Configuring with no batch; the returned
// reconciliation still describes what was found.
func (s *Session) Load(grid model.Grid) (model.Reconciliation, error) {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return model.Reconciliation{}, ErrCommitInProgress
	}
	if s.account == nil {
		s.mu.Unlock()
		return model.Reconciliation{}, ErrNoAccount
	}
	s.cycle++
	cycle := s.cycle
	s.reset(Parsing)
	acct, bank, blocking := *s.account, s.bank, s.blocking
	s.mu.Unlock()

	log := s.log.WithFields(logrus.Fields{
		logging.FieldAccount: acct.ID,
		logging.FieldBank:    acct.Bank,
		logging.FieldCycle:   cycle,
	})

	if blocking != nil {
		return model.Reconciliation{}, s.abort(cycle, log, fmt.Errorf("account %s: %w", acct.ID, blocking))
	}

	movements := bank.Parse(grid, importer.Options{ReferenceDate: s.now()})
	replayed := balance.Replay(movements)
	rec := reconcile.Validate(replayed, acct.Balance)
	if len(movements) == 0 {
		return rec, s.abort(cycle, log, fmt.Errorf("%s statement: %w", bank.Name(), ErrEmptyStatement))
	}

	accepted, rejected := reconcile.Partition(replayed.Movements)
	batch := &Batch{
		Bank:           bank,
		Movements:      replayed.Movements,
		Accepted:       accepted,
		Rejected:       rejected,
		Reconciliation: rec,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cycle != s.cycle {
		return model.Reconciliation{}, ErrStale
	}
	s.batch = batch
	s.state = Reviewing

	log.WithFields(logrus.Fields{
		logging.FieldState:   s.state.String(),
		logging.FieldCount:   rec.Total,
		logging.FieldValid:   rec.Valid,
		logging.FieldFlagged: rec.Flagged,
	}).Info("Statement loaded")
	s.record("load", acct.ID, "", fmt.Sprintf("bank=%s rows=%d valid=%d flagged=%d internal=%t opening=%t",
		bank.Name(), rec.Total, rec.Valid, rec.Flagged, rec.InternallyConsistent, rec.OpeningConsistent))
	return rec, nil
}

// abort returns the session to Configuring after a failed load.
func (s *Session) abort(cycle uint64, log logrus.FieldLogger, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cycle != s.cycle {
		return ErrStale
	}
	s.reset(Configuring)
	log.WithError(err).WithField(logging.FieldState, s.state.String()).Warn("Statement rejected")
	return err
}

// Commit submits the accepted rows of the batch under review. Only one commit
// may be in flight. On store failure the error is returned unchanged and the
// batch stays under review.
func (s *Session) Commit(ctx context.Context) (CommitResponse, error) {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return CommitResponse{}, ErrCommitInProgress
	}
	if s.state != Reviewing || s.batch == nil {
		s.mu.Unlock()
		return CommitResponse{}, ErrNotReviewing
	}
	rec := s.batch.Reconciliation
	if !rec.Committable(s.allowPartial) {
		s.mu.Unlock()
		return CommitResponse{}, fmt.Errorf("%w: %s", ErrNotReconciled, blockReason(rec, s.allowPartial))
	}

	req := CommitRequest{
		BatchID:        uuid.New(),
		AccountID:      s.account.ID,
		Movements:      append([]model.Movement(nil), s.batch.Accepted...),
		ClosingBalance: rec.ClosingComputed,
	}
	s.committing = true
	s.state = Committing
	s.mu.Unlock()

	log := s.log.WithFields(logrus.Fields{
		logging.FieldAccount: req.AccountID,
		logging.FieldBatch:   req.BatchID.String(),
		logging.FieldCount:   len(req.Movements),
	})
	log.Debug("Submitting batch")

	resp, err := s.store.Commit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false
	if err != nil {
		s.state = Reviewing
		log.WithError(err).WithField(logging.FieldState, s.state.String()).Error("Commit failed")
		s.record("commit_failed", req.AccountID, req.BatchID.String(), err.Error())
		return CommitResponse{}, err
	}

	s.account.Balance = decimal.NullDecimal{Decimal: resp.Balance, Valid: true}
	s.cycle++
	s.reset(Configuring)

	log.WithFields(logrus.Fields{
		logging.FieldState: s.state.String(),
		"balance":          resp.Balance.StringFixed(2),
	}).Info("Batch committed")
	s.record("commit", req.AccountID, req.BatchID.String(),
		fmt.Sprintf("committed=%d balance=%s", resp.Committed, resp.Balance.StringFixed(2)))
	return resp, nil
}

// Clear discards the batch under review.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return ErrCommitInProgress
	}
	s.cycle++
	if s.account == nil {
		s.reset(Idle)
		return nil
	}
	s.reset(Configuring)
	return nil
}

// reset drops the batch and moves to state. Caller holds s.mu.
func (s *Session) reset(state State) {
	s.batch = nil
	s.state = state
}

// record forwards to the recorder. Caller holds s.mu.
func (s *Session) record(action, accountID, batchID, details string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(action, accountID, batchID, details); err != nil {
		s.log.WithError(err).WithField(logging.FieldOperation, action).Warn("Failed to record import log entry")
	}
}

func blockReason(rec model.Reconciliation, allowPartial bool) string {
	switch {
	case rec.Valid == 0:
		return "no valid movements to commit"
	case !rec.OpeningConsistent:
		return rec.OpeningMessage
	case !rec.InternallyConsistent && !allowPartial:
		return rec.InternalMessage
	default:
		return "batch is not committable"
	}
}

func formatBalance(b decimal.NullDecimal) string {
	if !b.Valid {
		return "unknown"
	}
	return b.Decimal.StringFixed(2)
}
