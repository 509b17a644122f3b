package ledger

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/saldo/internal/csvfile"
	"github.com/cleared-dev/saldo/internal/model"
)

// AccountsHeader is the CSV header for bank-accounts.csv.
var AccountsHeader = []string{"account_id", "name", "bank", "balance"}

const (
	acctNumFields = 4
	acctColID     = 0
	acctColName   = 1
	acctColBank   = 2
	acctColBal    = 3
)

// ReadAccounts reads bank-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.BankAccount, error) {
	accounts, err := csvfile.Read(r, acctNumFields, UnmarshalAccount)
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	return accounts, nil
}

// WriteAccounts writes bank-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.BankAccount) error {
	rows := make([][]string, len(accounts))
	for i, acct := range accounts {
		rows[i] = MarshalAccount(acct)
	}
	return csvfile.Write(w, AccountsHeader, rows)
}

// MarshalAccount converts a BankAccount to a CSV row. An unknown balance is
// an empty cell.
func MarshalAccount(acct model.BankAccount) []string {
	row := make([]string, acctNumFields)
	row[acctColID] = acct.ID
	row[acctColName] = acct.Name
	row[acctColBank] = acct.Bank
	if acct.Balance.Valid {
		row[acctColBal] = acct.Balance.Decimal.StringFixed(2)
	}
	return row
}

// UnmarshalAccount converts a CSV row to a BankAccount.
func UnmarshalAccount(record []string) (model.BankAccount, error) {
	if len(record) != acctNumFields {
		return model.BankAccount{}, fmt.Errorf("expected %d fields, got %d", acctNumFields, len(record))
	}
	if record[acctColID] == "" {
		return model.BankAccount{}, fmt.Errorf("empty account_id")
	}

	acct := model.BankAccount{
		ID:   record[acctColID],
		Name: record[acctColName],
		Bank: record[acctColBank],
	}
	if record[acctColBal] != "" {
		bal, err := decimal.NewFromString(record[acctColBal])
		if err != nil {
			return model.BankAccount{}, fmt.Errorf("parsing balance %q: %w", record[acctColBal], err)
		}
		acct.Balance = decimal.NullDecimal{Decimal: bal, Valid: true}
	}
	return acct, nil
}
