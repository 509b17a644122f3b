package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is one bank statement line after normalization.
//
// Parsers produce Movements by value and never touch them again. The replay
// engine returns copies carrying ComputedBalance and Warning.
type Movement struct {
	Sequence        int        // row label or 1-based data row ordinal in the source
	Date            *time.Time // nil when no date encoding matched
	Reference       string
	Concept         string
	Debit           decimal.Decimal // non-negative
	Credit          decimal.Decimal // non-negative
	ReportedBalance decimal.Decimal // balance printed by the bank
	ComputedBalance decimal.NullDecimal
	Warning         string // non-empty excludes the row from commit
}

// WarningInvalidDate is attached to rows whose date cell could not be decoded.
const WarningInvalidDate = "invalid date"

// HasDate reports whether the movement carries a resolved date.
func (m Movement) HasDate() bool { return m.Date != nil }

// Flagged reports whether the movement carries a warning.
func (m Movement) Flagged() bool { return m.Warning != "" }

// WithWarning returns a copy of m with its warning replaced.
func (m Movement) WithWarning(warning string) Movement {
	m.Warning = warning
	return m
}

// WithComputedBalance returns a copy of m with its computed balance set.
func (m Movement) WithComputedBalance(balance decimal.Decimal) Movement {
	m.ComputedBalance = decimal.NullDecimal{Decimal: balance, Valid: true}
	return m
}

// DateOf returns a pointer to a UTC midnight copy of t.
func DateOf(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
