package ledger

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/saldo/internal/model"
	"github.com/cleared-dev/saldo/internal/session"
)

var ctx = context.Background()

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func on(d int) *time.Time {
	t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seeded(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	l := Open(t.TempDir(), opts...)
	require.NoError(t, l.AddAccount(model.BankAccount{ID: "banorte-01", Name: "Operativa", Bank: "Banorte"}))
	require.NoError(t, l.AddAccount(model.BankAccount{
		ID: "bbva-02", Name: "Nómina", Bank: "BBVA",
		Balance: decimal.NullDecimal{Decimal: dec("1500.25"), Valid: true},
	}))
	return l
}

func batch(accountID string) session.CommitRequest {
	return session.CommitRequest{
		BatchID:   uuid.MustParse("6f1c2a8e-8d0b-4b8e-9a51-0a7d3c2f9e11"),
		AccountID: accountID,
		Movements: []model.Movement{
			{Sequence: 1, Date: on(2), Concept: "DEPOSITO", Credit: dec("100"), ReportedBalance: dec("100"),
				ComputedBalance: decimal.NullDecimal{Decimal: dec("100"), Valid: true}},
			{Sequence: 2, Date: on(3), Reference: "F-12", Concept: "PAGO\nPROVEEDOR", Debit: dec("50"), ReportedBalance: dec("50"),
				ComputedBalance: decimal.NullDecimal{Decimal: dec("50"), Valid: true}},
		},
		ClosingBalance: dec("50"),
	}
}

func TestAccounts_Empty(t *testing.T) {
	accts, err := Open(t.TempDir()).Accounts()
	require.NoError(t, err)
	assert.Empty(t, accts)
}

func TestAddAccount_RoundTrip(t *testing.T) {
	l := seeded(t)

	accts, err := l.Accounts()
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.Equal(t, "banorte-01", accts[0].ID)
	assert.False(t, accts[0].Balance.Valid)
	assert.Equal(t, "Nómina", accts[1].Name)
	assert.True(t, accts[1].Balance.Decimal.Equal(dec("1500.25")))

	acct, err := l.Account(ctx, "bbva-02")
	require.NoError(t, err)
	assert.Equal(t, "BBVA", acct.Bank)
}

func TestAddAccount_Rejects(t *testing.T) {
	l := seeded(t)

	err := l.AddAccount(model.BankAccount{ID: "banorte-01", Bank: "Banorte"})
	assert.ErrorIs(t, err, ErrAccountExists)

	assert.Error(t, l.AddAccount(model.BankAccount{ID: " "}))
	assert.Error(t, l.AddAccount(model.BankAccount{ID: "../etc"}))
}

func TestAddAccount_UnsupportedBankIsStored(t *testing.T) {
	l := seeded(t)
	require.NoError(t, l.AddAccount(model.BankAccount{ID: "otra", Bank: "desconocido"}))

	acct, err := l.Account(ctx, "otra")
	require.NoError(t, err)
	assert.Equal(t, "desconocido", acct.Bank)
}

func TestAccount_NotFound(t *testing.T) {
	_, err := seeded(t).Account(ctx, "nope")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccount_CanceledContext(t *testing.T) {
	c, cancel := context.WithCancel(ctx)
	cancel()
	_, err := seeded(t).Account(c, "banorte-01")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommit(t *testing.T) {
	l := seeded(t)

	resp, err := l.Commit(ctx, batch("banorte-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Committed)
	assert.True(t, resp.Balance.Equal(dec("50")))

	acct, err := l.Account(ctx, "banorte-01")
	require.NoError(t, err)
	require.True(t, acct.Balance.Valid)
	assert.True(t, acct.Balance.Decimal.Equal(dec("50")))

	entries, err := l.Movements("banorte-01")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "6f1c2a8e-8d0b-4b8e-9a51-0a7d3c2f9e11", entries[0].BatchID)
	assert.Equal(t, "PAGO\nPROVEEDOR", entries[1].Movement.Concept)
	assert.Equal(t, "F-12", entries[1].Movement.Reference)
	assert.True(t, entries[1].Movement.Debit.Equal(dec("50")))
	assert.Equal(t, *on(3), *entries[1].Movement.Date)

	other, err := l.Account(ctx, "bbva-02")
	require.NoError(t, err)
	assert.True(t, other.Balance.Decimal.Equal(dec("1500.25")), "other accounts untouched")
}

func TestCommit_AppendsWithSingleHeader(t *testing.T) {
	l := seeded(t)
	_, err := l.Commit(ctx, batch("banorte-01"))
	require.NoError(t, err)
	_, err = l.Commit(ctx, batch("banorte-01"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(l.Root(), "movements", "banorte-01.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "batch_id,"))

	entries, err := l.Movements("banorte-01")
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

// failReplaceOnce makes the next bank-accounts.csv replacement fail.
func failReplaceOnce(l *Ledger) {
	l.replace = func(oldpath, newpath string) error {
		l.replace = os.Rename
		return errors.New("read-only file system")
	}
}

func TestCommit_BalanceWriteFailureLeavesNoRows(t *testing.T) {
	l := seeded(t)
	failReplaceOnce(l)

	_, err := l.Commit(ctx, batch("banorte-01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")

	_, err = os.Stat(filepath.Join(l.Root(), "movements", "banorte-01.csv"))
	assert.ErrorIs(t, err, fs.ErrNotExist, "new movements file removed")
	acct, err := l.Account(ctx, "banorte-01")
	require.NoError(t, err)
	assert.False(t, acct.Balance.Valid)

	_, err = l.Commit(ctx, batch("banorte-01"))
	require.NoError(t, err)

	entries, err := l.Movements("banorte-01")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "retry stores each row once")
}

func TestCommit_BalanceWriteFailureKeepsEarlierBatches(t *testing.T) {
	l := seeded(t)
	_, err := l.Commit(ctx, batch("banorte-01"))
	require.NoError(t, err)
	path := filepath.Join(l.Root(), "movements", "banorte-01.csv")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	next := batch("banorte-01")
	next.BatchID = uuid.MustParse("0b9e6c5d-1f2a-4c3b-8d7e-6a5b4c3d2e1f")
	next.ClosingBalance = dec("75")
	failReplaceOnce(l)

	_, err = l.Commit(ctx, next)
	require.Error(t, err)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "file truncated back to the committed batches")

	_, err = l.Commit(ctx, next)
	require.NoError(t, err)

	entries, err := l.Movements("banorte-01")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, next.BatchID.String(), entries[2].BatchID)
	assert.Equal(t, next.BatchID.String(), entries[3].BatchID)

	acct, err := l.Account(ctx, "banorte-01")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Decimal.Equal(dec("75")))
}

func TestCommit_UnknownAccount(t *testing.T) {
	_, err := seeded(t).Commit(ctx, batch("nope"))
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCommit_RejectsInvalidMovements(t *testing.T) {
	l := seeded(t)
	req := batch("banorte-01")
	req.Movements[1].Warning = "computed balance 50.00 does not match reported balance 60.00"

	_, err := l.Commit(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")

	entries, err := l.Movements("banorte-01")
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written on validation failure")
}

type fakeCommitter struct {
	messages []string
	err      error
}

func (f *fakeCommitter) CommitAll(_ context.Context, message string) (string, error) {
	f.messages = append(f.messages, message)
	return "abc1234", f.err
}

func TestCommit_Snapshots(t *testing.T) {
	git := &fakeCommitter{}
	l := seeded(t, WithCommitter(git))

	_, err := l.Commit(ctx, batch("banorte-01"))
	require.NoError(t, err)
	require.Len(t, git.messages, 1)
	assert.Contains(t, git.messages[0], "banorte-01")
	assert.Contains(t, git.messages[0], "6f1c2a8e")
}

func TestCommit_SnapshotFailureDoesNotFailCommit(t *testing.T) {
	l := seeded(t, WithCommitter(&fakeCommitter{err: errors.New("git missing")}))

	resp, err := l.Commit(ctx, batch("banorte-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Committed)
}

func TestValidateMovements(t *testing.T) {
	tests := []struct {
		name string
		movs []model.Movement
		want int
	}{
		{"valid", batch("x").Movements, 0},
		{"missing date", []model.Movement{{Sequence: 1}}, 1},
		{"flagged", []model.Movement{{Sequence: 1, Date: on(1), Warning: "x"}}, 1},
		{"negative", []model.Movement{{Sequence: 1, Date: on(1), Debit: dec("-1")}}, 1},
		{"out of order", []model.Movement{{Sequence: 1, Date: on(5)}, {Sequence: 2, Date: on(4)}}, 1},
		{"same day", []model.Movement{{Sequence: 1, Date: on(5)}, {Sequence: 2, Date: on(5)}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ValidateMovements(tt.movs), tt.want)
		})
	}
}

func TestUnmarshalAccount_Errors(t *testing.T) {
	_, err := UnmarshalAccount([]string{"a", "b"})
	assert.Error(t, err)
	_, err = UnmarshalAccount([]string{"", "n", "bbva", ""})
	assert.Error(t, err)
	_, err = UnmarshalAccount([]string{"a", "n", "bbva", "abc"})
	assert.Error(t, err)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	row := MarshalEntry(Entry{BatchID: "b", Movement: batch("x").Movements[0]})

	bad := append([]string(nil), row...)
	bad[movColSeq] = "x"
	_, err := UnmarshalEntry(bad)
	assert.Error(t, err)

	bad = append([]string(nil), row...)
	bad[movColDate] = "02/01/2024"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)

	bad = append([]string(nil), row...)
	bad[movColCredit] = "1,00"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)

	_, err = UnmarshalEntry(row[:3])
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	l := Open(t.TempDir())
	require.NoError(t, l.Init())

	data, err := os.ReadFile(filepath.Join(l.Root(), "accounts", "bank-accounts.csv"))
	require.NoError(t, err)
	assert.Equal(t, "account_id,name,bank,balance\n", string(data))

	require.NoError(t, l.AddAccount(model.BankAccount{ID: "a", Bank: "BBVA"}))
	require.NoError(t, l.Init(), "existing file kept")
	accts, err := l.Accounts()
	require.NoError(t, err)
	assert.Len(t, accts, 1)
}
