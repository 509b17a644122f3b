package model

import "github.com/shopspring/decimal"

// BankAccount is the externally maintained account a statement is imported into.
type BankAccount struct {
	ID      string
	Name    string
	Bank    string              // bank name, resolved to a parser on import
	Balance decimal.NullDecimal // invalid when the store has no balance yet
}
